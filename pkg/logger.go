package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Logger writes one access log entry per request.
func Logger(access *zap.Logger, next http.Handler) http.Handler {
	if access == nil {
		access = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Capture the response details by wrapping the ResponseWriter
		lrw := &loggedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		access.Info("request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.Path),
			zap.Any("qs_params", r.URL.Query()),
			zap.Any("headers", redactHeaders(r.Header)),
			zap.Int64("req_body_len", r.ContentLength),
			zap.String("status_class", getStatusClass(lrw.statusCode)),
			zap.Int64("rsp_body_len", lrw.responseLength),
		)
	})
}

// loggedResponseWriter captures status code and body size.
type loggedResponseWriter struct {
	http.ResponseWriter
	statusCode     int
	responseLength int64
}

func (lrw *loggedResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

func (lrw *loggedResponseWriter) Write(b []byte) (int, error) {
	size, err := lrw.ResponseWriter.Write(b)
	lrw.responseLength += int64(size)
	return size, err
}

func getStatusClass(statusCode int) string {
	return fmt.Sprintf("%dxx", statusCode/100)
}

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get("Authorization") != "" {
		out.Set("Authorization", "[redacted]")
	}
	return out
}

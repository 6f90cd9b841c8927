// Package api serves the ATM over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/bank"
	"github.com/laulowcode/atm-cli/internal/ledger"
	"github.com/laulowcode/atm-cli/internal/session"
)

// Caller is the authenticated session behind a request.
type Caller struct {
	SessionID string
	Name      string
}

type Server struct {
	bank     *bank.Service
	tokens   *session.Tokens
	validate *validator.Validate
	logger   *zap.Logger
}

func NewServer(svc *bank.Service, tokens *session.Tokens, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		bank:     svc,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Routes returns the API mux wrapped in the access log.
func (s *Server) Routes(accessLog *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.Login)
	// everything else needs a bearer token
	mux.Handle("POST /api/logout", s.Auth(s.Logout))
	mux.Handle("POST /api/deposit", s.Auth(s.Deposit))
	mux.Handle("POST /api/withdraw", s.Auth(s.Withdraw))
	mux.Handle("POST /api/transfer", s.Auth(s.Transfer))
	mux.Handle("GET /api/balance", s.Auth(s.Balance))
	mux.Handle("GET /api/accounts", s.Auth(s.Accounts))
	return Logger(accessLog, mux)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, ledger.ErrInvalidName.Message)
		return
	}

	res, err := s.bank.Login(r.Context(), req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	token, err := s.tokens.Issue(res.SessionID, res.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Message: fmt.Sprintf("Hello, %s!", res.Name),
		Data:    toLoginData(token, res),
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request, caller *Caller) {
	if _, err := s.bank.Logout(r.Context(), caller.SessionID); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Logged out successfully"})
}

func (s *Server) Deposit(w http.ResponseWriter, r *http.Request, caller *Caller) {
	var req AmountRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.bank.Deposit(r.Context(), caller.Name, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Deposit successful", Data: toDepositData(res)})
}

func (s *Server) Withdraw(w http.ResponseWriter, r *http.Request, caller *Caller) {
	var req AmountRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.bank.Withdraw(r.Context(), caller.Name, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Withdrawal successful", Data: WithdrawData{Balance: number(res.Balance)}})
}

func (s *Server) Transfer(w http.ResponseWriter, r *http.Request, caller *Caller) {
	var req TransferRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "receiver name is required")
		return
	}
	res, err := s.bank.Transfer(r.Context(), caller.Name, req.ReceiverName, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Transfer successful", Data: toTransferData(res)})
}

func (s *Server) Balance(w http.ResponseWriter, r *http.Request, caller *Caller) {
	res, err := s.bank.Balance(r.Context(), caller.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Message: fmt.Sprintf("Your balance is $%s.", res.Balance),
		Data:    toBalanceData(res),
	})
}

func (s *Server) Accounts(w http.ResponseWriter, r *http.Request, _ *Caller) {
	accounts, err := s.bank.Accounts(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Accounts retrieved", Data: toAccounts(accounts)})
}

// Auth resolves the bearer token to a live session. Tokens of logged out
// sessions are rejected even before they expire.
func (s *Server) Auth(next func(http.ResponseWriter, *http.Request, *Caller)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.Header.Get("Authorization")
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

		claims, err := s.tokens.Parse(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		name, err := s.bank.Current(claims.Id)
		if err != nil {
			writeError(w, http.StatusUnauthorized, session.ErrNotLoggedIn.Error())
			return
		}

		next(w, r, &Caller{SessionID: claims.Id, Name: name})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch ledger.CodeOf(err) {
	case ledger.CodeInvalidAmount, ledger.CodeInvalidName, ledger.CodeSameParty:
		return http.StatusBadRequest
	case ledger.CodeAccountNotFound, ledger.CodeSenderNotFound, ledger.CodeReceiverNotFound:
		return http.StatusNotFound
	case ledger.CodeInsufficientBalance:
		return http.StatusConflict
	}
	if errors.Is(err, session.ErrNotLoggedIn) || errors.Is(err, session.ErrInvalidToken) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: true, Message: message})
}

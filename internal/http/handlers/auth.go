package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/middleware"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Account accountDocument `json:"account"`
}

const minPasswordLength = 8

// SignUp creates a free-tier account and issues a session token.
func (a *App) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < minPasswordLength {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	if locale == "" {
		locale = "en"
	}
	account, err := a.Accounts.Create(r.Context(), &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Locale:       locale,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		a.Logger.Error().Err(err).Msg("create account failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "account store unreachable")
		return
	}
	a.session(w, r, account)
}

// SignIn verifies credentials and issues a session token. Rejections are
// recoverable and reported inline; the message never says which part failed.
func (a *App) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	account, err := a.Accounts.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "auth_failure", domain.ErrInvalidCredentials.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("load account failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "account store unreachable")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "auth_failure", domain.ErrInvalidCredentials.Error())
		return
	}
	a.session(w, r, account)
}

// Me returns the caller's account document with per-feature usage.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	usage, err := a.Gate.Snapshot(r.Context(), account.Actor())
	if err != nil {
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "usage store unreachable")
		return
	}
	a.json(w, http.StatusOK, buildAccountDocument(account, usage, a.Gate.Limit()))
}

func (a *App) session(w http.ResponseWriter, r *http.Request, account *domain.Account) {
	token, err := middleware.SignToken(a.JWTSecret, account.ID, account.Subscription.Plan, a.TokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	usage, err := a.Gate.Snapshot(r.Context(), account.Actor())
	if err != nil {
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "usage store unreachable")
		return
	}
	a.json(w, http.StatusOK, sessionResponse{
		Token:   token,
		Account: buildAccountDocument(account, usage, a.Gate.Limit()),
	})
}

// requireAccount loads the authenticated caller's account or writes the
// appropriate error.
func (a *App) requireAccount(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	account, err := a.Accounts.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
			return nil, false
		}
		a.Logger.Error().Err(err).Msg("load account failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "account store unreachable")
		return nil, false
	}
	return account, true
}

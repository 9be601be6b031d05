package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/logging"
	"github.com/clinicalai/apiv1/mailer"
	"github.com/clinicalai/apiv1/models"
	"github.com/clinicalai/apiv1/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
}

type SignupAttempt struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type LoginAttempt struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordReset struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type MeResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
	VaultUnlocked bool      `json:"vault_unlocked"`
}

func AuthRouter(s *mux.Router, a *api) {
	s.HandleFunc("/signup", a.Signup).Methods(http.MethodPost)
	s.HandleFunc("/signin", a.Login).Methods(http.MethodPost)
	s.HandleFunc("/verify", a.Verify).Methods(http.MethodPost)
	s.HandleFunc("/request_password_reset", a.RequestPasswordReset).Methods(http.MethodPost)
	s.HandleFunc("/reset_password", a.ResetPassword).Methods(http.MethodPost)
}

// SessionRouter holds the routes that act on the signed-in session itself.
func SessionRouter(s *mux.Router, a *api) {
	s.HandleFunc("/auth/signout", a.Signout).Methods(http.MethodPost)
	s.HandleFunc("/auth/resend_verification", a.ResendVerification).Methods(http.MethodPost)
	s.HandleFunc("/me", a.Me).Methods(http.MethodGet)
	s.HandleFunc("/subjects", a.ListSubjects).Methods(http.MethodGet)
}

func (a *api) issueSession(w http.ResponseWriter, userID string, status int) {
	accessToken, err := utils.CreateJWTToken(a.JWTSecret, userID, uuid.NewString(), a.AccessTokenDuration, time.Now())
	if err != nil {
		a.Logger.Error("signing access token", zap.Error(err))
		http.Error(w, utils.GENERIC_SERVER_ERROR, http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, TokenResponse{
		AccessToken: accessToken.TokenString,
		ExpiresAt:   accessToken.ExpireTime,
		UserID:      userID,
	})
}

// sendVerification never fails the caller; the user can ask for a new token.
func (a *api) sendVerification(ctx context.Context, userID, email string) {
	token, err := a.Store.IssueVerificationToken(ctx, userID)
	if err != nil {
		a.Logger.Error("issuing verification token", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := a.Mailer.Send(ctx, mailer.VerificationMessage(email, token, a.PublicBaseURL)); err != nil {
		a.Logger.Warn("sending verification email", logging.Redacted("email", email), zap.Error(err))
	}
}

func (a *api) Signup(w http.ResponseWriter, r *http.Request) {
	signupAttempt, err := DecodeValidBody[SignupAttempt](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	userID, err := a.Store.Register(r.Context(), signupAttempt.Email, signupAttempt.Password)
	if errors.Is(err, dbhelper.ErrDuplicateEmail) {
		a.respondError(w, r, err)
		return
	}
	if err != nil {
		a.Logger.Error("signup failed", zap.Error(err))
		http.Error(w, utils.GENERIC_SIGNUP_ERROR, http.StatusInternalServerError)
		return
	}
	a.sendVerification(r.Context(), userID, dbhelper.NormalizeEmail(signupAttempt.Email))
	a.issueSession(w, userID, http.StatusCreated)
}

func (a *api) Login(w http.ResponseWriter, r *http.Request) {
	loginAttempt, err := DecodeValidBody[LoginAttempt](w, r)
	if err != nil {
		a.GenericAuthError(w, err, utils.GENERIC_LOGIN_ERROR)
		return
	}
	userID, err := a.Store.Authenticate(r.Context(), loginAttempt.Email, loginAttempt.Password)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.issueSession(w, userID, http.StatusOK)
}

func (a *api) Verify(w http.ResponseWriter, r *http.Request) {
	verifyRequest, err := DecodeValidBody[VerifyRequest](w, r)
	if err != nil {
		a.GenericAuthError(w, err, utils.GENERIC_VERIFY_ERROR)
		return
	}
	if _, err := a.Store.ConsumeVerificationToken(r.Context(), verifyRequest.Token); err != nil {
		if errors.Is(err, dbhelper.ErrNotFound) {
			a.GenericAuthError(w, err, utils.GENERIC_VERIFY_ERROR)
			return
		}
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "Email verified!"})
}

// RequestPasswordReset answers the same way whether or not the email has an account.
func (a *api) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	passwordResetRequest, err := DecodeValidBody[PasswordResetRequest](w, r)
	if err != nil {
		a.GenericAuthError(w, err, utils.GENERIC_PASSWORD_RESET_REQUEST_ERROR)
		return
	}
	email := dbhelper.NormalizeEmail(passwordResetRequest.Email)
	token, err := a.Store.IssueResetToken(r.Context(), email)
	switch {
	case errors.Is(err, dbhelper.ErrNotFound):
		a.Logger.Debug("password reset for unknown email", logging.Redacted("email", email))
	case err != nil:
		a.respondError(w, r, err)
		return
	default:
		if err := a.Mailer.Send(r.Context(), mailer.ResetMessage(email, token, a.PublicBaseURL)); err != nil {
			a.Logger.Warn("sending reset email", logging.Redacted("email", email), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: utils.PASSWORD_RESET_REQUESTED})
}

func (a *api) ResetPassword(w http.ResponseWriter, r *http.Request) {
	passwordReset, err := DecodeValidBody[PasswordReset](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if _, err := a.Store.ResetPassword(r.Context(), passwordReset.Token, passwordReset.Password); err != nil {
		if errors.Is(err, dbhelper.ErrNotFound) {
			a.GenericAuthError(w, err, utils.GENERIC_PASSWORD_RESET_ERROR)
			return
		}
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "Password updated. Please sign in."})
}

func (a *api) Signout(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	a.Sessions.Revoke(id.SessionID, id.ExpiresAt)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "Signed out."})
}

func (a *api) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, err := a.Store.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if user.Verified {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "Email already verified."})
		return
	}
	a.sendVerification(r.Context(), user.ID, user.Email)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "New verification token sent!"})
}

func (a *api) Me(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	user, err := a.Store.GetUser(r.Context(), id.UserID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	_, unlocked := a.Sessions.VaultKey(id.SessionID)
	writeJSON(w, http.StatusOK, MeResponse{
		ID:            user.ID,
		Email:         user.Email,
		Verified:      user.Verified,
		CreatedAt:     user.CreatedAt,
		VaultUnlocked: unlocked,
	})
}

func (a *api) ListSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"subjects": models.Subjects,
		"moods":    models.Moods,
	})
}

package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/models"
	"github.com/clinicalai/apiv1/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type StatusResponse struct {
	Status string `json:"status"`
}

type RequestBody interface {
	SignupAttempt | LoginAttempt | VerifyRequest | PasswordResetRequest | PasswordReset |
		QuizInput | ScoreInput | FlashcardInput | CheckInInput | QuoteInput | ReminderInput |
		MnemonicInput | VaultNoteInput | VaultUnlock | AskInput
}

// DecodeValidBody decodes the JSON body and runs its validate tags. Failures
// come back as *models.ValidationError.
func DecodeValidBody[B RequestBody](w http.ResponseWriter, r *http.Request) (B, error) {
	var requestBody B
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&requestBody); err != nil {
		return requestBody, models.Invalid("%s", utils.MISSING_REQUEST_DATA)
	}
	if err := validate.Struct(requestBody); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return requestBody, models.Invalid("%s", describe(validationErrors))
		}
		return requestBody, err
	}
	return requestBody, nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *api) GenericAuthError(w http.ResponseWriter, err error, errorMessage string) {
	a.Logger.Debug("auth request rejected", zap.Error(err))
	http.Error(w, errorMessage, http.StatusBadRequest)
}

// respondError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a generic 500.
func (a *api) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var banErr *dbhelper.BanError
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Message, http.StatusBadRequest)
	case errors.Is(err, dbhelper.ErrNotFound):
		http.Error(w, utils.RECORD_NOT_FOUND_ERROR, http.StatusNotFound)
	case errors.Is(err, dbhelper.ErrDuplicateEmail):
		http.Error(w, utils.EMAIL_TAKEN_SIGNUP_ERROR, http.StatusConflict)
	case errors.Is(err, dbhelper.ErrInvalidCredentials):
		http.Error(w, utils.INVALID_CREDENTIALS_ERROR, http.StatusUnauthorized)
	case errors.Is(err, dbhelper.ErrWrongVaultPassword):
		http.Error(w, utils.VAULT_PASSWORD_ERROR, http.StatusForbidden)
	case errors.As(err, &banErr):
		http.Error(w, utils.GenerateBanMessage(banErr.Until, a.Store.Now()), http.StatusTooManyRequests)
	default:
		a.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, utils.GENERIC_SERVER_ERROR, http.StatusInternalServerError)
	}
}

package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clinicalai/apiv1/utils"
	"go.uber.org/zap"
)

// Identity is the signed-in caller, resolved once per request from the bearer token.
type Identity struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type RevocationChecker interface {
	IsRevoked(sessionID string) bool
}

type Auth struct {
	secret  []byte
	revoked RevocationChecker
	logger  *zap.Logger
}

func NewAuth(secret []byte, revoked RevocationChecker, logger *zap.Logger) *Auth {
	return &Auth{secret: secret, revoked: revoked, logger: logger}
}

func GetTokenFromAuthorizationHeader(authHeader string) (string, error) {
	if len(authHeader) == 0 {
		return "", errors.New(utils.MISSING_REQUEST_DATA)
	}
	bearerToken := strings.Fields(authHeader)
	if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
		return "", errors.New(utils.MISSING_REQUEST_DATA)
	}
	return bearerToken[1], nil
}

func (a *Auth) IsAccessTokenAuthorized(f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessTokenString, err := GetTokenFromAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := utils.VerifyJWTToken(a.secret, accessTokenString)
		if err != nil {
			a.logger.Debug("rejected access token", zap.Error(err))
			message := utils.JWT_TOKEN_PARSING_ERROR
			if errors.Is(err, utils.ErrTokenExpired) {
				message = utils.JWT_TOKEN_EXPIRED_ERROR
			}
			http.Error(w, message, http.StatusUnauthorized)
			return
		}
		if a.revoked != nil && a.revoked.IsRevoked(claims.SessionID) {
			http.Error(w, utils.UNAUTHORIZED_ERROR, http.StatusUnauthorized)
			return
		}
		id := Identity{UserID: claims.Subject, SessionID: claims.SessionID}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}
		f(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

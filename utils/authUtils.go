package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const HASH_ROUNDS = 10

var ErrTokenExpired = errors.New(JWT_TOKEN_EXPIRED_ERROR)
var ErrTokenInvalid = errors.New(JWT_TOKEN_PARSING_ERROR)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HASH_ROUNDS)
	return string(bytes), err
}

func ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NewOpaqueToken returns a hex-encoded token read from crypto/rand.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken is what gets stored for single-use tokens; the plaintext never is.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type JWT_TOKEN struct {
	TokenString string
	SessionID   string
	ExpireTime  time.Time
}

func CreateJWTToken(secret []byte, userID, sessionID string, ttl time.Duration, now time.Time) (JWT_TOKEN, error) {
	expires := now.Add(ttl)
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return JWT_TOKEN{}, err
	}
	return JWT_TOKEN{TokenString: tokenString, SessionID: sessionID, ExpireTime: expires}, nil
}

func VerifyJWTToken(secret []byte, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func GenerateBanMessage(banExpAt, now time.Time) string {
	diff := banExpAt.Sub(now)
	timeLeft := int(diff.Round(time.Minute).Minutes())
	errorMessage := fmt.Sprintf("Please try again in %d minutes.", timeLeft)
	if timeLeft <= 1 {
		errorMessage = "Please try again in 1 minute."
	}
	return errorMessage
}

package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the application logger. When file is set, entries are appended to
// it as well as written to stderr.
func New(env, file string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, file)
	}
	return cfg.Build()
}

// Redacted returns a field whose value is masked when the key names a secret.
func Redacted(key, value string) zap.Field {
	if isSecretKey(key) {
		return zap.String(key, "[REDACTED]")
	}
	return zap.String(key, value)
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"token", "authorization", "password", "secret", "api_key", "apikey", "email"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/clinicalai/apiv1/utils"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env                 string        `mapstructure:"env" validate:"oneof=development production test"`
	Port                int           `mapstructure:"port" validate:"min=1,max=65535"`
	DBPath              string        `mapstructure:"db_path" validate:"required"`
	LogFile             string        `mapstructure:"log_file"`
	JWTSecretKey        string        `mapstructure:"jwt_secret_key" validate:"required,min=16"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" validate:"min=1m"`
	MaxLoginAttempts    int           `mapstructure:"max_login_attempts" validate:"min=0"`
	AuthRateLimit       float64       `mapstructure:"auth_rate_limit" validate:"gt=0"`
	VaultSessionTTL     time.Duration `mapstructure:"vault_session_ttl" validate:"min=1m"`
	PublicBaseURL       string        `mapstructure:"public_base_url" validate:"omitempty,url"`

	HFAPIKey         string        `mapstructure:"hf_api_key"`
	HFModel          string        `mapstructure:"hf_model" validate:"required"`
	HFBaseURL        string        `mapstructure:"hf_base_url" validate:"required,url"`
	AssistantTimeout time.Duration `mapstructure:"assistant_timeout" validate:"min=1s"`
	WebSearchEnabled bool          `mapstructure:"web_search_enabled"`
	WebSearchURL     string        `mapstructure:"web_search_url" validate:"required,url"`

	// Without a key mail goes to the log, which must not happen in production.
	SendgridAPIKey    string `mapstructure:"sendgrid_api_key" validate:"required_if=Env production"`
	SendgridFromEmail string `mapstructure:"sendgrid_from_email" validate:"omitempty,email"`
	SendgridBaseURL   string `mapstructure:"sendgrid_base_url" validate:"required,url"`
}

var defaults = map[string]any{
	"env":                   "development",
	"port":                  5005,
	"db_path":               "app_data.db",
	"log_file":              "",
	"jwt_secret_key":        "",
	"access_token_duration": utils.ACCESS_TOKEN_DURATION,
	"max_login_attempts":    utils.MAX_NUM_LOGIN_ATTEMPTS,
	"auth_rate_limit":       5.0,
	"vault_session_ttl":     "2h",
	"public_base_url":       "",
	"hf_api_key":            "",
	"hf_model":              "google/flan-t5-large",
	"hf_base_url":           "https://api-inference.huggingface.co/models",
	"assistant_timeout":     "30s",
	"web_search_enabled":    false,
	"web_search_url":        "https://api.duckduckgo.com/",
	"sendgrid_api_key":      "",
	"sendgrid_from_email":   "",
	"sendgrid_base_url":     "https://api.sendgrid.com",
}

// envKeys lists the variables whose names differ from the upper-cased config key
// or that have more than one accepted name.
var envKeys = map[string][]string{
	"env":                   {utils.ENV},
	"port":                  {utils.PORT},
	"db_path":               {utils.DB_PATH},
	"jwt_secret_key":        {utils.JWT_SECRET_KEY},
	"access_token_duration": {utils.ACCESS_TOKEN_DURATION_ENV},
	"max_login_attempts":    {utils.MAX_NUM_LOGIN_ATTEMPTS_ENV},
	// Older deployments set the Hugging Face key under the second name.
	"hf_api_key": {utils.HF_API_KEY, utils.LEGACY_HF_API_KEY},
}

var validate = validator.New()

// Load reads .env (if present), then an optional config file, then the
// environment, and validates the result. Later sources win.
func Load(configFile string) (*Config, error) {
	cfg, err := Read(configFile)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for commands that need only part of the config.
func Read(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", names[0], err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{}
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		minutesHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.HFAPIKey = strings.TrimSpace(cfg.HFAPIKey)
	return &cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// minutesHook reads a bare number as minutes, so ACCESS_TOKEN_DURATION=720 is 12h.
// Strings with a unit ("90s", "2h") are left for StringToTimeDurationHookFunc.
func minutesHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return data, nil
		}
		return time.Duration(n * float64(time.Minute)), nil
	case int:
		return time.Duration(v) * time.Minute, nil
	case int64:
		return time.Duration(v) * time.Minute, nil
	case float64:
		return time.Duration(v * float64(time.Minute)), nil
	}
	return data, nil
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		var msgs []string
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field: %s, Tag: %s, Param: %s", e.Field(), e.Tag(), e.Param()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LookupEnv is used by the CLI to tell whether a secret came from the environment.
func LookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ---- Root ----

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Apollo    ApolloConfig    `mapstructure:"apollo"`
	Security  SecurityConfig  `mapstructure:"security"`
	Mock      MockConfig      `mapstructure:"mock"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ---- Leaf structs ----

type AppConfig struct {
	Env string `mapstructure:"env" validate:"oneof=development production"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type ApolloConfig struct {
	BaseURL     string `mapstructure:"base_url" validate:"required,url"`
	PathPrefix  string `mapstructure:"path_prefix"`
	Token       string `mapstructure:"token"`
	TimeoutMs   int    `mapstructure:"timeout_ms" validate:"gt=0"`
	UserAgent   string `mapstructure:"user_agent"`
	MaxAttempts int    `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BackoffMs   int    `mapstructure:"backoff_ms" validate:"gte=0"`
}

type SecurityConfig struct {
	AllowedCodes          string `mapstructure:"allowed_codes"` // comma-separated
	InternalToken         string `mapstructure:"internal_token"`
	SigningSecret         string `mapstructure:"signing_secret"`
	SignatureSkewMs       int    `mapstructure:"signature_skew_ms" validate:"gt=0"`
	ExposeUpstreamDetails bool   `mapstructure:"expose_upstream_details"`
}

type MockConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	RPS       int    `mapstructure:"rps" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), EnvProduction)
}

// MockAllowed: mock documents are served outside production, or anywhere when explicitly enabled.
func (c Config) MockAllowed() bool {
	return c.Mock.Enabled || !c.IsProduction()
}

// AllowedCodeList splits the comma-separated whitelist, dropping blanks.
func (c SecurityConfig) AllowedCodeList() []string {
	return SplitList(c.AllowedCodes)
}

func SplitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// legacyEnv maps config keys to the variable names older deployments export.
var legacyEnv = map[string]string{
	"apollo.token":           "APOLLO_API_TOKEN",
	"apollo.timeout_ms":      "APOLLO_TIMEOUT_MS",
	"security.allowed_codes": "ALLOWED_PRODUCT_CODES",
	"app.env":                "APP_ENV",
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (ESIM_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		// an explicit path must load
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (ESIM_APOLLO_TOKEN, ...)
	v.SetEnvPrefix("ESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		if err := v.BindEnv(key, "ESIM_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.App.Env = strings.ToLower(strings.TrimSpace(cfg.App.Env))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report viper key names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

// Validate checks value ranges once at startup so bad deployments fail fast.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.apollo.timeout_ms"
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", key, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

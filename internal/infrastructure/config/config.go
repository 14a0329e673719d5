package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Token     TokenConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Crypto    CryptoConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type TokenConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	Algorithm     string        `env:"JWT_ALGORITHM,     default=HS256"`
	Issuer        string        `env:"JWT_ISSUER,        default=iris-identity"`
	Audience      string        `env:"JWT_AUDIENCE,      default=iris-mobile"`
}

type PasswordConfig struct {
	MinLength     int  `env:"PASSWORD_MIN_LENGTH,     default=8"`
	RequireUpper  bool `env:"PASSWORD_REQUIRE_UPPER,  default=true"`
	RequireLower  bool `env:"PASSWORD_REQUIRE_LOWER,  default=true"`
	RequireDigit  bool `env:"PASSWORD_REQUIRE_DIGIT,  default=true"`
	RequireSymbol bool `env:"PASSWORD_REQUIRE_SYMBOL, default=false"`
	BcryptCost    int  `env:"BCRYPT_COST,             default=12"`
}

type RateLimitConfig struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW, default=1m"`
	Max    int           `env:"RATE_LIMIT_MAX,    default=10"`
}

type CryptoConfig struct {
	MasterKey      string `env:"MASTER_KEY"`
	KDFIterations  int    `env:"KDF_ITERATIONS,  default=100000"`
	KDFDigest      string `env:"KDF_DIGEST,      default=sha256"`
	AnonymizeAudit bool   `env:"AUDIT_ANONYMIZE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=iris_identity"`
}

type RedisConfig struct {
	// An empty Addr disables Redis; the rate limiter then falls back to
	// its in-process sliding window.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs with relaxed requirements.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects configurations that cannot be run safely. Outside
// development every secret must be set explicitly; there are no fallback
// keys baked into the binary.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.Token.AccessSecret == "" || c.Token.RefreshSecret == "" {
		return fmt.Errorf("%w: token signing secrets are required outside development", domain.ErrConfiguration)
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return fmt.Errorf("%w: access and refresh secrets must differ", domain.ErrConfiguration)
	}
	if c.Crypto.MasterKey == "" {
		return fmt.Errorf("%w: master key for at-rest encryption is required outside development", domain.ErrConfiguration)
	}
	return nil
}

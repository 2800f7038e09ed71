package config

import (
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

// BaseConfig is the root configuration for the identity server. Values are
// loaded by go-config from defaults, config files, and environment variables.
type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

// Validate runs at startup; a server with no signing key must not boot.
func (c BaseConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required", errors.CategoryValidation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	if c.Persistence.DSN == "" {
		return errors.New("persistence.dsn is required", errors.CategoryValidation).
			WithTextCode("MISSING_DSN")
	}

	return nil
}

func (c *BaseConfig) GetApp() App {
	return c.App
}

func (c *BaseConfig) GetAuth() *Auth {
	return &c.Auth
}

func (c *BaseConfig) GetPersistence() *Persistence {
	return &c.Persistence
}

type App struct {
	Name    string `json:"name" koanf:"name"`
	Address string `json:"address" koanf:"address"`
}

func (a App) GetName() string {
	if a.Name == "" {
		return "identityd"
	}
	return a.Name
}

func (a App) GetAddress() string {
	if a.Address == "" {
		return ":8572"
	}
	return a.Address
}

// Auth satisfies the identity.Config interface.
type Auth struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (a *Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a *Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a *Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a *Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 12
	}
	return a.TokenExpiration
}

func (a *Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a *Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a *Auth) GetIssuer() string {
	return a.Issuer
}

func (a *Auth) GetAudience() []string {
	return a.Audience
}

type Persistence struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p *Persistence) GetDebug() bool {
	return p.Debug
}

func (p *Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p *Persistence) GetDSN() string {
	return p.DSN
}

func (p *Persistence) GetServer() string {
	return p.DSN
}

func (p *Persistence) GetOtelIdentifier() string {
	return ""
}

func (p *Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return time.Second * 5
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

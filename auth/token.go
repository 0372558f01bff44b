package auth

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail parsing or verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenConfig configures the HMAC token service.
type TokenConfig struct {
	// Secret is the HS256 signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Issuer is the "iss" claim. Optional.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// TTL is the token lifetime (default: 24h).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults fills in zero-value fields.
func (c *TokenConfig) ApplyDefaults() {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
}

// Validate checks required fields.
func (c *TokenConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("auth: token secret is required")
	}
	return nil
}

// Identity is the user a token is issued for.
type Identity struct {
	Username string
	Role     string
}

// Claims are the token claims. Subject holds the username.
type Claims struct {
	gojwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Username returns the subject.
func (c *Claims) Username() string {
	return c.Subject
}

// TokenService signs and parses HS256 tokens.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// Issue returns a signed token for id.
func (s *TokenService) Issue(id Identity) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Role: id.Role,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (s *TokenService) Parse(token string) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

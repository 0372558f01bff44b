package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
)

// AuthConfig configures request authentication. Static credentials such as
// gateway API keys go in Config.Headers instead.
type AuthConfig struct {
	Type  AuthType
	Token string
}

// BearerAuth authenticates with "Authorization: Bearer <token>". An empty
// token disables authentication, which lets a single request opt out of the
// adapter default.
func BearerAuth(token string) *AuthConfig {
	if token == "" {
		return &AuthConfig{Type: AuthNone}
	}
	return &AuthConfig{Type: AuthBearer, Token: token}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Type != AuthBearer {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

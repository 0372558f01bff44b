package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig lists the browser origins allowed to call the server. The
// playground frontend reads X-Request-Id and streamed bodies across origins.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is how long a preflight answer may be cached, in seconds.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

func (c *CORSConfig) allows(origin string) bool {
	return slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin)
}

// CORS adds the Access-Control headers for allowed origins. A preflight
// (OPTIONS with Access-Control-Request-Method) is answered with 204 and
// never reaches next.
func CORS(cfg *CORSConfig) Middleware {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			h.Add("Vary", "Origin")
			if origin != "" && cfg.allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposed != "" {
					h.Set("Access-Control-Expose-Headers", exposed)
				}
				if preflight {
					if methods != "" {
						h.Set("Access-Control-Allow-Methods", methods)
					}
					if headers != "" {
						h.Set("Access-Control-Allow-Headers", headers)
					}
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
				}
			}
			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

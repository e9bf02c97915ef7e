package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc extracts a raw token from a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// QueryTokenExtractor reads the token from a query parameter.
func QueryTokenExtractor(param string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get(param)
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}

// FirstOf tries extractors in order and returns the first token found.
func FirstOf(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			if token, err := ex(r); err == nil {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
}

// DefaultExtractor accepts a bearer header or the "token" query parameter.
var DefaultExtractor = FirstOf(BearerTokenExtractor, QueryTokenExtractor("token"))

// Authenticator resolves identities from requests.
type Authenticator struct {
	service   *Service
	extractor TokenExtractorFunc
}

// NewAuthenticator creates an authenticator using DefaultExtractor when
// extractor is nil.
func NewAuthenticator(service *Service, extractor TokenExtractorFunc) *Authenticator {
	if service == nil {
		panic("jwt.NewAuthenticator: service is required")
	}
	if extractor == nil {
		extractor = DefaultExtractor
	}
	return &Authenticator{service: service, extractor: extractor}
}

// Identify extracts and verifies the request token.
func (a *Authenticator) Identify(r *http.Request) (Identity, error) {
	if id, ok := FromContext(r.Context()); ok {
		return id, nil
	}
	token, err := a.extractor(r)
	if err != nil {
		return Identity{}, err
	}
	return a.service.Verify(token)
}

// Authenticate returns the user ID of the request.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	id, err := a.Identify(r)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

// Middleware rejects requests without a valid token with 401 and stores the
// identity in the request context otherwise.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return AuthenticatorMiddleware(NewAuthenticator(service, nil))
}

// AuthenticatorMiddleware is Middleware for a preconfigured Authenticator.
func AuthenticatorMiddleware(auth *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := auth.Identify(r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole answers 403 unless the identity in context holds one of roles.
// Requests without an identity get 401.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !id.HasRole(roles...) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

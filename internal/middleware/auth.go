package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventdesk/backend/pkg/utils"
)

// RoleOperator marks helpdesk staff allowed on the admin surface.
const RoleOperator = "admin"

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	Name string
	Role string
}

// IsOperator reports whether the principal may use operator endpoints.
func (p Principal) IsOperator() bool {
	return p.Role == RoleOperator
}

type contextKey int

const principalKey contextKey = 0

// PrincipalFrom returns the request principal, if any. Anonymous
// visitors have none and resolve to guest sessions instead.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates bearer tokens issued by the account service. This side
// only verifies; issuance, MFA and refresh are out of scope here.
type Auth struct {
	secret []byte
}

// NewAuth creates the validator. An empty secret disables validation,
// making every caller anonymous.
func NewAuth(secret string) *Auth {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &Auth{}
	}
	return &Auth{secret: []byte(secret)}
}

// Authenticate attaches the principal to the request context when a
// valid bearer token is present. A missing or invalid token is not an
// error: the caller proceeds as an anonymous visitor.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := a.principalFromHeader(r.Header.Get("Authorization"))
		if ok {
			r = r.WithContext(context.WithValue(r.Context(), principalKey, principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) principalFromHeader(header string) (Principal, bool) {
	if len(a.secret) == 0 {
		return Principal{}, false
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return Principal{}, false
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		log.Printf("[auth] rejected bearer token: %v", err)
		return Principal{}, false
	}

	return Principal{Name: claims.Subject, Role: claims.Role}, true
}

// RequireOperator guards operator-only endpoints. Anonymous callers get
// 401, authenticated non-operators 403.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !principal.IsOperator() {
			utils.RespondError(w, http.StatusForbidden, "operator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

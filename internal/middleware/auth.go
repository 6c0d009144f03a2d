package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"voucherd/internal/domain"
)

// ClaimMapping names the JWT claims that carry the caller identity. The
// username and organization claims are mandatory on every token; a token
// without them is rejected rather than guessed at. The account type claim
// is optional and defaults to a human account.
type ClaimMapping struct {
	Username    string
	Org         string
	AccountType string
}

// Authenticator returns an HTTP middleware that authenticates requests with
// a bearer JWT, resolves the token to a domain.Caller and stores it in the
// request context. Requests without a valid token get 401.
func Authenticator(validator JWTValidator, mapping ClaimMapping) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "provide a bearer token")
				return
			}

			claims, err := validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			caller, err := callerFromClaims(claims, mapping)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			ctx := domain.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerFromClaims(claims *JWTClaims, mapping ClaimMapping) (domain.Caller, error) {
	username, ok := claims.String(mapping.Username)
	if !ok && mapping.Username == "sub" {
		// The subject is parsed into its own field by both validators.
		username, ok = claims.Subject, claims.Subject != ""
	}
	if !ok {
		return domain.Caller{}, domain.ErrPermissionDenied("token is missing the %q claim", mapping.Username)
	}

	orgID, ok := claims.String(mapping.Org)
	if !ok {
		return domain.Caller{}, domain.ErrPermissionDenied("token is missing the %q claim", mapping.Org)
	}

	accountType := domain.AccountTypeHuman
	if v, ok := claims.String(mapping.AccountType); ok {
		switch v {
		case domain.AccountTypeHuman, domain.AccountTypeService:
			accountType = v
		default:
			return domain.Caller{}, domain.ErrPermissionDenied("token carries unknown account type %q", v)
		}
	}

	return domain.Caller{Username: username, AccountType: accountType, OrgID: orgID}, nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    401,
		"message": "unauthorized: " + message,
	})
}

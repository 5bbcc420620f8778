package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-logr/logr"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

func NewOIDCVerifier(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return provider.Verifier(&oidc.Config{SkipClientIDCheck: true}), nil
}

// NewAuthFilter rejects requests without a valid bearer token. /healthz stays open.
func NewAuthFilter(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			ResponseError(w, benchxerrors.NewUnauthorizedError(errors.New("missing bearer token")))
			return
		}
		idtoken, err := verifier.Verify(r.Context(), token)
		if err != nil {
			ResponseError(w, benchxerrors.NewUnauthorizedError(err))
			return
		}
		logr.FromContextOrDiscard(r.Context()).V(1).Info("authorized", "subject", idtoken.Subject)
		next.ServeHTTP(w, r)
	})
}

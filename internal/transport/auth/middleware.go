package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
)

type ctxKey string

const principalKey ctxKey = "principal"

// TokenMiddleware authenticates bearer tokens (header first, then the
// token query parameter for websocket connections) and stores the resolved
// operator's Principal in the request context.
func TokenMiddleware(tokenRepo *repository.AccessTokenRepository, operatorRepo *repository.OperatorRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token *domain.AccessToken

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plain := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if plain != "" {
					t, err := tokenRepo.FindByPlainToken(r.Context(), plain)
					if err != nil {
						log.Printf("[AUTH] token lookup (header) error: %v", err)
					} else {
						token = t
					}
				}
			}

			if token == nil {
				if plain := r.URL.Query().Get("token"); plain != "" {
					t, err := tokenRepo.FindByPlainToken(r.Context(), plain)
					if err != nil {
						log.Printf("[AUTH] token lookup (query) error: %v", err)
					} else {
						token = t
					}
				}
			}

			if token == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			operator, err := operatorRepo.GetByID(r.Context(), token.OperatorID)
			if err != nil {
				log.Printf("[AUTH] operator lookup error: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), operator.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (domain.Principal, error) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	if !ok {
		return domain.Principal{}, errors.New("principal not found in context")
	}
	return p, nil
}

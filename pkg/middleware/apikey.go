package middleware

import (
	"net/http"
	"strings"

	"krib-booking/internal/data/repository"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

// APIKey authenticates an external service. Keys are looked up by their
// prefix and then compared against the stored bcrypt hash.
func APIKey(repo repository.ExternalServiceRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if raw == "" {
				utils.ResponseUnauthorized(w, "Missing API key")
				return
			}

			prefix := utils.KeyPrefix(raw)
			candidates, err := repo.FindActiveByPrefix(r.Context(), prefix)
			if err != nil {
				logger.Error("Failed to look up API key", zap.Error(err), zap.String("key_prefix", prefix))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			for _, svc := range candidates {
				if !utils.CheckAPIKey(svc.APIKeyHash, raw) {
					continue
				}

				if err := repo.TouchLastUsed(r.Context(), svc.ID); err != nil {
					logger.Warn("Failed to record API key use", zap.Error(err), zap.String("external_service_id", svc.ID.String()))
				}

				ctx := utils.SetExternalServiceContext(r.Context(), svc.ID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			logger.Warn("Invalid API key", zap.String("key_prefix", prefix), zap.String("path", r.URL.Path))
			utils.ResponseUnauthorized(w, "Invalid API key")
		})
	}
}

package wire

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"krib-booking/internal/data/repository"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRoutes(t *testing.T) {
	app := Wiring(&repository.Repository{}, &utils.Config{}, usecase.Infra{}, nil, zap.NewNop())

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"external search needs api key", http.MethodGet, "/api/v1/external/properties/search", http.StatusUnauthorized},
		{"external booking needs api key", http.MethodPost, "/api/v1/external/bookings", http.StatusUnauthorized},
		{"external webhooks need api key", http.MethodGet, "/api/v1/external/webhooks", http.StatusUnauthorized},
		{"host routes need a session", http.MethodPost, "/api/host/bookings/abc/approve", http.StatusUnauthorized},
		{"host payouts need a session", http.MethodGet, "/api/host/payouts", http.StatusUnauthorized},
		{"preflight", http.MethodOptions, "/api/v1/external/bookings", http.StatusNoContent},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

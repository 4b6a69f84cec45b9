package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/cache"
	"krib-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSessions struct {
	sessions map[uuid.UUID]*entity.Session
}

func (f *fakeSessions) Create(ctx context.Context, s *entity.Session) error { return nil }
func (f *fakeSessions) Revoke(ctx context.Context, token uuid.UUID) error   { return nil }
func (f *fakeSessions) RevokeAllForHost(ctx context.Context, hostID uuid.UUID) (int64, error) {
	return 0, nil
}
func (f *fakeSessions) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}
func (f *fakeSessions) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	s, ok := f.sessions[token]
	if !ok || !s.Active(time.Now()) {
		return nil, nil
	}
	return s, nil
}

type fakeHosts struct {
	hosts map[uuid.UUID]*entity.Host
}

func (f *fakeHosts) FindByID(ctx context.Context, id uuid.UUID) (*entity.Host, error) {
	return f.hosts[id], nil
}
func (f *fakeHosts) UpdateAutoApprove(ctx context.Context, id uuid.UUID, enabled bool, limit float64) (*entity.Host, error) {
	return nil, nil
}
func (f *fakeHosts) UpdateStripeAccount(ctx context.Context, accountID string, verified, payoutsEnabled bool) error {
	return nil
}

type fakeServices struct {
	services []*entity.ExternalService
	touched  []uuid.UUID
	err      error
}

func (f *fakeServices) Create(ctx context.Context, svc *entity.ExternalService) error { return nil }
func (f *fakeServices) FindActiveByPrefix(ctx context.Context, prefix string) ([]*entity.ExternalService, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.ExternalService
	for _, s := range f.services {
		if s.APIKeyPrefix == prefix && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeServices) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeLimiter struct {
	decision cache.RateDecision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (cache.RateDecision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthSession(t *testing.T) {
	host := &entity.Host{Role: entity.RoleHost, IsActive: true}
	host.ID = uuid.New()
	inactive := &entity.Host{Role: entity.RoleHost}
	inactive.ID = uuid.New()

	valid, stale, expired, revoked := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	later, earlier := time.Now().Add(time.Hour), time.Now().Add(-time.Minute)
	sessions := &fakeSessions{sessions: map[uuid.UUID]*entity.Session{
		valid:   {HostID: host.ID, Token: valid, ExpiresAt: later},
		stale:   {HostID: inactive.ID, Token: stale, ExpiresAt: later},
		expired: {HostID: host.ID, Token: expired, ExpiresAt: earlier},
		revoked: {HostID: host.ID, Token: revoked, ExpiresAt: later, RevokedAt: &earlier},
	}}
	hosts := &fakeHosts{hosts: map[uuid.UUID]*entity.Host{host.ID: host, inactive.ID: inactive}}

	var gotHost uuid.UUID
	var gotRole string
	handler := AuthSession(sessions, hosts, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost, _ = utils.GetUserIDFromContext(r.Context())
		gotRole, _ = utils.GetRoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid.String(), http.StatusOK},
		{"lowercase scheme", "bearer " + valid.String(), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid.String(), http.StatusUnauthorized},
		{"not a uuid", "Bearer abc", http.StatusUnauthorized},
		{"unknown session", "Bearer " + uuid.NewString(), http.StatusUnauthorized},
		{"inactive host", "Bearer " + stale.String(), http.StatusUnauthorized},
		{"expired session", "Bearer " + expired.String(), http.StatusUnauthorized},
		{"revoked session", "Bearer " + revoked.String(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/host/payouts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, host.ID, gotHost)
				assert.Equal(t, "host", gotRole)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(zap.NewNop(), entity.RoleHost)(http.HandlerFunc(okHandler))

	for role, status := range map[string]int{"host": http.StatusOK, "admin": http.StatusOK, "guest": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKey(t *testing.T) {
	raw, prefix, err := utils.GenerateAPIKey()
	require.NoError(t, err)
	hash, err := utils.HashAPIKey(raw)
	require.NoError(t, err)

	svc := &entity.ExternalService{Name: "Trip Agent", APIKeyPrefix: prefix, APIKeyHash: hash, IsActive: true}
	svc.ID = uuid.New()
	repo := &fakeServices{services: []*entity.ExternalService{svc}}

	var gotService uuid.UUID
	handler := APIKey(repo, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotService, _ = utils.GetExternalServiceFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/external/properties/search", nil)
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(raw))
	assert.Equal(t, svc.ID, gotService)
	assert.Equal(t, []uuid.UUID{svc.ID}, repo.touched)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call(prefix+"tampered"))

	svc.IsActive = false
	assert.Equal(t, http.StatusUnauthorized, call(raw))

	repo.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, call(raw))
}

func TestRateLimit(t *testing.T) {
	serviceID := uuid.New()
	limiter := &fakeLimiter{decision: cache.RateDecision{Allowed: true, Limit: 100, Remaining: 99}}
	handler := RateLimit(limiter, "search", 100, zap.NewNop())(http.HandlerFunc(okHandler))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(utils.SetExternalServiceContext(req.Context(), serviceID))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"search:" + serviceID.String()}, limiter.keys)

	limiter.decision = cache.RateDecision{Allowed: false, Limit: 100, RetryAfter: 1500 * time.Millisecond}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	// fail open
	limiter.err = errors.New("redis: connection refused")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRecover_ReportsRequestID(t *testing.T) {
	handler := chimw.RequestID(Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Internal server error","errors":{"request_id":"req-42"}}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS()(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/external/bookings", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, Logger(zap.New(core)))
	r.Get("/health", okHandler)
	r.Get("/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/b-1", nil))
	assert.NotEmpty(t, rec.Header().Get(chimw.RequestIDHeader))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/bookings/{id}", fields["route"])
	assert.Equal(t, int64(http.StatusTooManyRequests), fields["status"])
	assert.Equal(t, rec.Header().Get(chimw.RequestIDHeader), fields["request_id"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

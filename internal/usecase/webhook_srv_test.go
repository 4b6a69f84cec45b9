package usecase

import (
	"context"
	"testing"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/dto/request"
	"krib-booking/internal/webhook"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookKey = "whsec_0123456789abcdef"

func (f *fixture) webhookService(d *fakeDeliverer) *webhookService {
	svc := NewWebhookService(f.webhooks, d, 0, 0, zap.NewNop()).(*webhookService)
	svc.now = fixedNow
	return svc
}

func registerRequest(url string, events ...string) *request.RegisterWebhookRequest {
	return &request.RegisterWebhookRequest{
		AgentName:  "Trip Agent",
		WebhookURL: url,
		Events:     events,
		APIKey:     testWebhookKey,
	}
}

func TestRegisterWebhook(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})

	resp, err := svc.Register(context.Background(), f.agentID,
		registerRequest("https://agent.test/hooks", "booking.created", "booking.cancelled"))
	require.NoError(t, err)

	assert.True(t, resp.IsActive)
	assert.Equal(t, entity.DefaultMaxFailedAttempts, resp.MaxFailedAttempts)
	assert.Equal(t, []entity.WebhookEvent{entity.EventBookingCreated, entity.EventBookingCancelled}, resp.Events)
	assert.NotEqual(t, testWebhookKey, resp.KeyPrefix)
	assert.True(t, len(resp.KeyPrefix) < len(testWebhookKey))

	stored := f.webhooks.subs[uuid.MustParse(resp.ID)]
	require.NotNil(t, stored)
	assert.Equal(t, testWebhookKey, stored.Secret)
	assert.Equal(t, f.agentID, *stored.ExternalServiceID)
}

func TestRegisterWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  *request.RegisterWebhookRequest
	}{
		{"unknown event", registerRequest("https://agent.test/hooks", "booking.exploded")},
		{"no events", registerRequest("https://agent.test/hooks")},
		{"relative url", registerRequest("/hooks", "booking.created")},
		{"non-http scheme", registerRequest("ftp://agent.test/hooks", "booking.created")},
		{"short key", &request.RegisterWebhookRequest{AgentName: "a", WebhookURL: "https://agent.test", Events: []string{"booking.created"}, APIKey: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.webhookService(&fakeDeliverer{}).Register(context.Background(), f.agentID, tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, f.webhooks.subs)
		})
	}
}

func TestRegisterWebhook_DuplicateURL(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})

	_, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.confirmed"))
	var cErr *ConflictError
	assert.ErrorAs(t, err, &cErr)
}

func TestWebhookOwnership(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})
	resp, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)

	other := uuid.New()
	var authErr *AuthorizationError

	_, err = svc.Get(context.Background(), other, resp.ID)
	assert.ErrorAs(t, err, &authErr)
	_, err = svc.Toggle(context.Background(), other, resp.ID)
	assert.ErrorAs(t, err, &authErr)
	err = svc.Delete(context.Background(), other, resp.ID)
	assert.ErrorAs(t, err, &authErr)

	list, err := svc.List(context.Background(), other, &request.ListWebhooksRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Data)

	var nf *NotFoundError
	_, err = svc.Get(context.Background(), f.agentID, uuid.NewString())
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateWebhook_PartialFields(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})
	created, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)

	name := "Renamed Agent"
	updated, err := svc.Update(context.Background(), f.agentID, created.ID, &request.UpdateWebhookRequest{
		AgentName: &name,
		Events:    []string{"payment.received"},
	})
	require.NoError(t, err)

	assert.Equal(t, name, updated.AgentName)
	assert.Equal(t, created.WebhookURL, updated.WebhookURL)
	assert.Equal(t, []entity.WebhookEvent{entity.EventPaymentReceived}, updated.Events)

	bad := "mailto:agent@test"
	_, err = svc.Update(context.Background(), f.agentID, created.ID, &request.UpdateWebhookRequest{WebhookURL: &bad})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestUpdateWebhook_LoweredThresholdDeactivates(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})
	created, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)
	f.webhooks.subs[uuid.MustParse(created.ID)].FailedAttempts = 4

	updated, err := svc.Update(context.Background(), f.agentID, created.ID, &request.UpdateWebhookRequest{
		MaxFailedAttempts: intPtr(2),
	})
	require.NoError(t, err)

	assert.False(t, updated.IsActive)
	assert.Equal(t, 4, updated.FailedAttempts)
	assert.Equal(t, 2, updated.MaxFailedAttempts)

	active, err := f.webhooks.ListActiveForEvent(context.Background(), entity.EventBookingCreated)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdateWebhook_RaisedThresholdKeepsActive(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})
	created, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)
	f.webhooks.subs[uuid.MustParse(created.ID)].FailedAttempts = 2

	updated, err := svc.Update(context.Background(), f.agentID, created.ID, &request.UpdateWebhookRequest{
		MaxFailedAttempts: intPtr(10),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 2, updated.FailedAttempts)
}

func TestToggleAndDeleteWebhook(t *testing.T) {
	f := newFixture()
	svc := f.webhookService(&fakeDeliverer{})
	created, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)
	f.webhooks.subs[uuid.MustParse(created.ID)].FailedAttempts = 3

	toggled, err := svc.Toggle(context.Background(), f.agentID, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.Toggle(context.Background(), f.agentID, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	assert.Zero(t, toggled.FailedAttempts)

	active, err := svc.List(context.Background(), f.agentID, &request.ListWebhooksRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active.Data, 1)

	require.NoError(t, svc.Delete(context.Background(), f.agentID, created.ID))
	_, err = svc.Get(context.Background(), f.agentID, created.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestWebhookTestDelivery(t *testing.T) {
	f := newFixture()
	d := &fakeDeliverer{result: webhook.SubscriberResult{
		Succeeded: true,
		Attempts:  []entity.WebhookDeliveryAttempt{{AttemptNumber: 1, Succeeded: true}},
	}}
	svc := f.webhookService(d)
	created, err := svc.Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)

	resp, err := svc.Test(context.Background(), f.agentID, created.ID)
	require.NoError(t, err)

	assert.True(t, resp.Succeeded)
	assert.Equal(t, created.ID, resp.SubscriptionID)
	assert.Len(t, resp.Attempts, 1)
	require.Len(t, d.delivered, 1)
	assert.Equal(t, entity.EventTestWebhook, d.delivered[0].Type)
}

func TestWebhookTestDelivery_IsBounded(t *testing.T) {
	f := newFixture()
	d := &fakeDeliverer{}
	created, err := f.webhookService(d).Register(context.Background(), f.agentID, registerRequest("https://agent.test/hooks", "booking.created"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"default", 0, DefaultTestDeliveryTimeout},
		{"configured", 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWebhookService(f.webhooks, d, 0, tt.timeout, zap.NewNop())

			start := time.Now()
			_, err := svc.Test(context.Background(), f.agentID, created.ID)
			require.NoError(t, err)

			require.True(t, d.bounded)
			assert.WithinDuration(t, start.Add(tt.want), d.deadline, time.Second)
		})
	}
}

package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"krib-booking/internal/calc"
	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/notify"
	"krib-booking/internal/webhook"
	"krib-booking/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---------- hosts ----------

type fakeHosts struct {
	mu    sync.Mutex
	hosts map[uuid.UUID]*entity.Host
}

func (f *fakeHosts) FindByID(ctx context.Context, id uuid.UUID) (*entity.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hosts[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (f *fakeHosts) UpdateAutoApprove(ctx context.Context, id uuid.UUID, enabled bool, limit float64) (*entity.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hosts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	h.AutoApproveBookings = enabled
	h.AutoApproveAmountLimit = limit
	cp := *h
	return &cp, nil
}

func (f *fakeHosts) UpdateStripeAccount(ctx context.Context, accountID string, verified, payoutsEnabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.hosts {
		if h.StripeAccountID != nil && *h.StripeAccountID == accountID {
			h.StripeAccountVerified = verified
			h.PayoutsEnabled = payoutsEnabled
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---------- sessions ----------

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func (f *fakeSessions) Create(ctx context.Context, s *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.Token] = &cp
	return nil
}

func (f *fakeSessions) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || !s.Active(testNow) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || s.RevokedAt != nil {
		return repository.ErrNotFound
	}
	at := testNow
	s.RevokedAt = &at
	return nil
}

func (f *fakeSessions) RevokeAllForHost(ctx context.Context, hostID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.HostID == hostID && s.Active(testNow) {
			at := testNow
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}

// ---------- properties ----------

type fakeProperties struct {
	mu         sync.Mutex
	properties map[uuid.UUID]*entity.Property
	lastFilter repository.PropertyFilter
}

func (f *fakeProperties) FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProperties) Search(ctx context.Context, filter repository.PropertyFilter) ([]*entity.Property, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	var matched []*entity.Property
	for _, p := range f.properties {
		if filter.Location != "" && !strings.Contains(strings.ToLower(p.City), strings.ToLower(filter.Location)) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

// ---------- bookings ----------

type fakeBookings struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*entity.Booking
	properties *fakeProperties

	// skipped by FindOccupying, to simulate a booking committed after the pre-check
	hidden map[uuid.UUID]bool
}

func (f *fakeBookings) CreateIfAvailable(ctx context.Context, b *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.properties.properties[b.PropertyID]; !ok {
		return repository.ErrNotFound
	}
	var same []*entity.Booking
	for _, existing := range f.bookings {
		if existing.PropertyID == b.PropertyID {
			same = append(same, existing)
		}
	}
	if calc.ConflictsWith(same, calc.DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}, nil) {
		return repository.ErrBookingConflict
	}

	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.PaymentIntentID != nil && *b.PaymentIntentID == paymentIntentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookings) FindOccupying(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.PropertyID != propertyID || f.hidden[b.ID] {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBookings) Transition(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, at time.Time) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = at
	switch to {
	case entity.BookingStatusConfirmed:
		b.ConfirmedAt = &at
	case entity.BookingStatusCancelled:
		b.CancelledAt = &at
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, paymentIntentID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentStatus = status
	if paymentIntentID != nil {
		pi := *paymentIntentID
		b.PaymentIntentID = &pi
	}
	return nil
}

func (f *fakeBookings) RecordRefund(ctx context.Context, id uuid.UUID, amount float64, status entity.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || amount > b.TotalAmount {
		return repository.ErrNotFound
	}
	b.RefundAmount = &amount
	b.PaymentStatus = status
	return nil
}

func (f *fakeBookings) ClaimPayout(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.PaymentStatus != entity.PaymentStatusSucceeded {
		return false, nil
	}
	if b.HostPayoutStatus != entity.HostPayoutStatusNone && b.HostPayoutStatus != entity.HostPayoutStatusFailed {
		return false, nil
	}
	b.HostPayoutStatus = entity.HostPayoutStatusProcessing
	return true, nil
}

func (f *fakeBookings) UpdateHostPayoutStatus(ctx context.Context, id uuid.UUID, status entity.HostPayoutStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.HostPayoutStatus = status
	return nil
}

func (f *fakeBookings) FindPayoutCandidates(ctx context.Context, checkOutOnOrBefore time.Time, limit int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.PaymentStatus != entity.PaymentStatusSucceeded {
			continue
		}
		if b.HostPayoutStatus != entity.HostPayoutStatusNone && b.HostPayoutStatus != entity.HostPayoutStatusFailed {
			continue
		}
		if b.Status != entity.BookingStatusConfirmed && b.Status != entity.BookingStatusCompleted {
			continue
		}
		if b.CheckOut.After(checkOutOnOrBefore) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckOut.Before(out[j].CheckOut) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookings) CompletePast(ctx context.Context, today time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.Status == entity.BookingStatusConfirmed && b.PaymentStatus == entity.PaymentStatusSucceeded && b.CheckOut.Before(today) {
			b.Status = entity.BookingStatusCompleted
			n++
		}
	}
	return n, nil
}

// ---------- webhooks ----------

type fakeWebhooks struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*entity.WebhookSubscription
}

func (f *fakeWebhooks) Create(ctx context.Context, sub *entity.WebhookSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.WebhookURL == sub.WebhookURL {
			return repository.ErrDuplicateWebhookURL
		}
	}
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeWebhooks) FindByID(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeWebhooks) List(ctx context.Context, filter repository.WebhookFilter) ([]*entity.WebhookSubscription, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.WebhookSubscription
	for _, s := range f.subs {
		if filter.ExternalServiceID != nil && (s.ExternalServiceID == nil || *s.ExternalServiceID != *filter.ExternalServiceID) {
			continue
		}
		if filter.ActiveOnly && !s.IsActive {
			continue
		}
		if filter.AgentName != "" && !strings.Contains(strings.ToLower(s.AgentName), strings.ToLower(filter.AgentName)) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentName < out[j].AgentName })

	total := int64(len(out))
	if filter.Offset >= len(out) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[filter.Offset:end], total, nil
}

func (f *fakeWebhooks) Update(ctx context.Context, sub *entity.WebhookSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.subs[sub.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, s := range f.subs {
		if id != sub.ID && s.WebhookURL == sub.WebhookURL {
			return repository.ErrDuplicateWebhookURL
		}
	}
	stored.AgentName = sub.AgentName
	stored.WebhookURL = sub.WebhookURL
	stored.Events = append([]entity.WebhookEvent(nil), sub.Events...)
	stored.MaxFailedAttempts = sub.MaxFailedAttempts
	stored.UpdatedAt = sub.UpdatedAt
	if stored.FailureLimitReached() {
		stored.IsActive = false
	}
	sub.IsActive, sub.FailedAttempts = stored.IsActive, stored.FailedAttempts
	return nil
}

func (f *fakeWebhooks) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeWebhooks) Toggle(ctx context.Context, id uuid.UUID) (*entity.WebhookSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.IsActive = !s.IsActive
	s.FailedAttempts = 0
	cp := *s
	return &cp, nil
}

func (f *fakeWebhooks) ListActiveForEvent(ctx context.Context, event entity.WebhookEvent) ([]*entity.WebhookSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.WebhookSubscription
	for _, s := range f.subs {
		if s.IsActive && s.Subscribes(event) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWebhooks) RecordSuccess(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		s.FailedAttempts = 0
	}
	return nil
}

func (f *fakeWebhooks) RecordFailure(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return false, nil
	}
	s.FailedAttempts++
	if s.IsActive && s.FailedAttempts >= s.MaxFailedAttempts {
		s.IsActive = false
		return true, nil
	}
	return false, nil
}

// ---------- payouts ----------

type fakePayouts struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]*entity.Payout
}

func (f *fakePayouts) Create(ctx context.Context, p *entity.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payouts {
		if existing.BookingID == p.BookingID && existing.Status != entity.PayoutStatusFailed {
			return repository.ErrPayoutAlreadyInitiated
		}
	}
	cp := *p
	f.payouts[p.ID] = &cp
	return nil
}

func (f *fakePayouts) FindByTransferReference(ctx context.Context, ref string) (*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payouts {
		if p.TransferReference != nil && *p.TransferReference == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePayouts) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Payout
	for _, p := range f.payouts {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.After(out[j].InitiatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakePayouts) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.payouts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakePayouts) MarkProcessing(ctx context.Context, id uuid.UUID, ref string) error {
	return f.update(id, func(p *entity.Payout) {
		p.Status = entity.PayoutStatusProcessing
		p.TransferReference = &ref
	})
}

func (f *fakePayouts) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return f.update(id, func(p *entity.Payout) {
		p.Status = entity.PayoutStatusFailed
		p.FailureMessage = &message
	})
}

func (f *fakePayouts) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	return f.update(id, func(p *entity.Payout) {
		p.Status = entity.PayoutStatusPaid
		p.CompletedAt = &at
	})
}

func (f *fakePayouts) update(id uuid.UUID, fn func(p *entity.Payout)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	return nil
}

func (f *fakePayouts) only() *entity.Payout {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payouts {
		cp := *p
		return &cp
	}
	return nil
}

// ---------- payment events ----------

type fakePaymentEvents struct {
	mu     sync.Mutex
	events map[string]*entity.PaymentEvent
}

func (f *fakePaymentEvents) Record(ctx context.Context, ev *entity.PaymentEvent) (*entity.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.events[ev.ExternalEventID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *ev
	f.events[ev.ExternalEventID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePaymentEvents) MarkProcessed(ctx context.Context, id uuid.UUID, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == id {
			ev.Processed = true
			ev.Error = errMsg
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---------- collaborators ----------

type publishedEvents struct {
	mu       sync.Mutex
	events   []webhook.Event
	notified []notify.HostNotification
}

func (p *publishedEvents) Publish(ev webhook.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *publishedEvents) NotifyHost(n notify.HostNotification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notified = append(p.notified, n)
}

func (p *publishedEvents) types() []entity.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.WebhookEvent, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakePayments struct {
	mu        sync.Mutex
	intents   []payment.PaymentIntentInput
	refunds   map[string]float64
	transfers []payment.TransferInput

	intentErr   error
	refundErr   error
	transferErr error

	event    *payment.Event
	parseErr error
}

func newFakePayments() *fakePayments {
	return &fakePayments{refunds: make(map[string]float64)}
}

func (f *fakePayments) CreatePaymentIntent(ctx context.Context, in payment.PaymentIntentInput) (*payment.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	f.intents = append(f.intents, in)
	return &payment.PaymentIntent{ID: "pi_" + in.BookingID[:8], ClientSecret: "secret_" + in.BookingID[:8], Status: "requires_payment_method"}, nil
}

func (f *fakePayments) Refund(ctx context.Context, paymentIntentID string, amount float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return "", f.refundErr
	}
	f.refunds[paymentIntentID] = amount
	return "re_1", nil
}

func (f *fakePayments) Transfer(ctx context.Context, in payment.TransferInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return "", f.transferErr
	}
	f.transfers = append(f.transfers, in)
	return "tr_" + in.BookingID[:8], nil
}

func (f *fakePayments) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	ev := *f.event
	ev.Payload = payload
	return &ev, nil
}

type fakeDeliverer struct {
	delivered []webhook.Event
	result    webhook.SubscriberResult
	deadline  time.Time
	bounded   bool
}

func (f *fakeDeliverer) DeliverTo(ctx context.Context, sub *entity.WebhookSubscription, ev webhook.Event) webhook.SubscriberResult {
	f.delivered = append(f.delivered, ev)
	f.deadline, f.bounded = ctx.Deadline()
	res := f.result
	res.SubscriptionID = sub.ID
	res.AgentName = sub.AgentName
	return res
}

// ---------- fixture ----------

type fixture struct {
	repo       *repository.Repository
	hosts      *fakeHosts
	sessions   *fakeSessions
	properties *fakeProperties
	bookings   *fakeBookings
	webhooks   *fakeWebhooks
	payouts    *fakePayouts
	events     *fakePaymentEvents
	payments   *fakePayments
	published  *publishedEvents

	host     *entity.Host
	property *entity.Property
	agentID  uuid.UUID
}

func newFixture() *fixture {
	props := &fakeProperties{properties: make(map[uuid.UUID]*entity.Property)}
	f := &fixture{
		hosts:      &fakeHosts{hosts: make(map[uuid.UUID]*entity.Host)},
		sessions:   &fakeSessions{sessions: make(map[uuid.UUID]*entity.Session)},
		properties: props,
		bookings:   &fakeBookings{bookings: make(map[uuid.UUID]*entity.Booking), properties: props, hidden: make(map[uuid.UUID]bool)},
		webhooks:   &fakeWebhooks{subs: make(map[uuid.UUID]*entity.WebhookSubscription)},
		payouts:    &fakePayouts{payouts: make(map[uuid.UUID]*entity.Payout)},
		events:     &fakePaymentEvents{events: make(map[string]*entity.PaymentEvent)},
		payments:   newFakePayments(),
		published:  &publishedEvents{},
		agentID:    uuid.New(),
	}
	f.repo = &repository.Repository{
		Host:         f.hosts,
		Session:      f.sessions,
		Property:     f.properties,
		Booking:      f.bookings,
		Webhook:      f.webhooks,
		Payout:       f.payouts,
		PaymentEvent: f.events,
	}

	account := "acct_host"
	f.host = &entity.Host{
		Name:                   "Ana",
		Email:                  "ana@krib.test",
		Role:                   entity.RoleHost,
		IsActive:               true,
		StripeAccountID:        &account,
		StripeAccountVerified:  true,
		PayoutsEnabled:         true,
		AutoApproveBookings:    true,
		AutoApproveAmountLimit: 3000,
	}
	f.host.ID = uuid.New()
	f.hosts.hosts[f.host.ID] = f.host

	minNights, maxNights := 2, 14
	from, to := day(2026, 1, 1), day(2026, 12, 31)
	f.property = &entity.Property{
		HostID:        f.host.ID,
		Title:         "Sea View Loft",
		City:          "Lisbon",
		Country:       "Portugal",
		PricePerNight: 500,
		Bedrooms:      2,
		Bathrooms:     1,
		MaxGuests:     4,
		MinimumNights: &minNights,
		MaximumNights: &maxNights,
		AvailableFrom: &from,
		AvailableTo:   &to,
		Status:        entity.PropertyStatusActive,
	}
	f.property.ID = uuid.New()
	f.properties.properties[f.property.ID] = f.property

	return f
}

func (f *fixture) bookingService() *bookingService {
	svc := NewBookingService(f.repo, calc.NewPricingCalculator(calc.DefaultPricingRules()), f.payments, f.published, "usd", zap.NewNop()).(*bookingService)
	svc.now = fixedNow
	return svc
}

// addBooking stores a booking of the fixture property created by the fixture agent
func (f *fixture) addBooking(checkIn, checkOut time.Time, status entity.BookingStatus, paid entity.PaymentStatus) *entity.Booking {
	agent := f.agentID
	b := &entity.Booking{
		PropertyID:        f.property.ID,
		HostID:            f.host.ID,
		ExternalServiceID: &agent,
		GuestName:         "Sam",
		GuestEmail:        "sam@guest.test",
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Guests:            2,
		TotalAmount:       2725,
		Status:            status,
		PaymentStatus:     paid,
		HostPayoutStatus:  entity.HostPayoutStatusNone,
	}
	b.ID = uuid.New()
	b.CreatedAt = testNow
	b.UpdatedAt = testNow
	if paid != entity.PaymentStatusPending {
		pi := "pi_" + b.ID.String()[:8]
		b.PaymentIntentID = &pi
	}

	f.bookings.mu.Lock()
	f.bookings.bookings[b.ID] = b
	f.bookings.mu.Unlock()

	cp := *b
	return &cp
}

func (f *fixture) booking(id uuid.UUID) *entity.Booking {
	b, _ := f.bookings.FindByID(context.Background(), id)
	return b
}

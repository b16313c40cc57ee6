package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"gymstay/backend/internal/domain/accesstoken"
	"gymstay/backend/internal/domain/gym"
	"gymstay/backend/internal/domain/notifications"
	"gymstay/backend/internal/domain/payments"
	"gymstay/backend/internal/domain/pricing"
)

var testNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu       sync.Mutex
	intents  map[string]*payments.Intent
	seq      int
	captures int
	cancels  int

	createErr  error
	captureErr error
	retrieve   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*payments.Intent{}}
}

func (g *fakeGateway) CreateAuthorization(_ context.Context, req payments.AuthorizationRequest) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	in := &payments.Intent{
		ID:           fmt.Sprintf("pi_%d", g.seq),
		Status:       payments.StatusRequiresCapture,
		Amount:       payments.ToMinorUnits(req.Amount, req.Currency),
		Currency:     req.Currency,
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.seq),
		Created:      testNow.Add(time.Duration(g.seq) * time.Minute),
		Metadata:     req.Metadata,
		Card:         &payments.Card{Brand: "visa", Last4: "4242"},
	}
	g.intents[in.ID] = in
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) CaptureAuthorization(_ context.Context, id string) (payments.CaptureOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures++
	if g.captureErr != nil {
		return "", g.captureErr
	}
	in, ok := g.intents[id]
	if !ok {
		return "", payments.ErrIntentNotFound
	}
	switch in.Status {
	case payments.StatusSucceeded:
		return payments.AlreadyCaptured, nil
	case payments.StatusRequiresCapture:
		in.Status = payments.StatusSucceeded
		return payments.Captured, nil
	}
	return "", fmt.Errorf("%w: intent is %s", payments.ErrPaymentFailed, in.Status)
}

func (g *fakeGateway) CancelAuthorization(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancels++
	in, ok := g.intents[id]
	if !ok {
		return payments.ErrIntentNotFound
	}
	if in.Status == payments.StatusSucceeded {
		return payments.ErrAlreadyCaptured
	}
	in.Status = payments.StatusCanceled
	return nil
}

func (g *fakeGateway) RetrieveAuthorization(_ context.Context, id string) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieve != nil {
		return nil, g.retrieve
	}
	in, ok := g.intents[id]
	if !ok {
		return nil, payments.ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) SearchAuthorizationsByMetadata(_ context.Context, key, value string) ([]payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieve != nil {
		return nil, g.retrieve
	}
	var out []payments.Intent
	for _, in := range g.intents {
		if in.Metadata[key] == value {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*payments.Event, error) {
	return nil, payments.ErrWebhookNotConfigured
}

// put registers an intent created outside the service, e.g. by a retried checkout.
func (g *fakeGateway) put(in payments.Intent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[in.ID] = &in
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = status
}

func (g *fakeGateway) captureCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captures
}

type fakeMailer struct {
	mu            sync.Mutex
	confirmations []notifications.Confirmation
	newBookings   []notifications.BookingSummary
	err           error
}

func (m *fakeMailer) NotifyNewBooking(_ context.Context, b notifications.BookingSummary) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, false, m.err
	}
	m.newBookings = append(m.newBookings, b)
	return true, true, nil
}

func (m *fakeMailer) SendPaymentConfirmed(_ context.Context, c notifications.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.confirmations = append(m.confirmations, c)
	return nil
}

func (m *fakeMailer) sent() []notifications.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notifications.Confirmation(nil), m.confirmations...)
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

type fixture struct {
	svc       *Service
	store     *MemoryStore
	catalog   *gym.MemoryCatalog
	gateway   *fakeGateway
	mailer    *fakeMailer
	publisher *fakePublisher
	tokens    *accesstoken.Service
	logs      *test.Hook
}

const (
	testGymID   = "gym-1"
	testOwner   = "owner-1"
	testPackage = "pkg-training"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := gym.NewMemoryCatalog()
	catalog.PutGym(gym.Gym{
		ID:                 testGymID,
		Name:               "Tiger Camp",
		Currency:           "USD",
		VerificationStatus: gym.VerificationVerified,
		OwnerUID:           testOwner,
	})
	catalog.PutGym(gym.Gym{ID: "gym-draft", Name: "Draft Gym", VerificationStatus: gym.VerificationDraft})
	catalog.PutPackage(gym.Package{
		ID:          testPackage,
		GymID:       testGymID,
		Name:        "Muay Thai Training",
		Type:        pricing.TypeTraining,
		PricingMode: pricing.ModeRate,
		DailyRate:   60,
		Active:      true,
	})
	catalog.PutPackage(gym.Package{
		ID:          "pkg-room",
		GymID:       testGymID,
		Name:        "Camp Room",
		Type:        pricing.TypeAccommodation,
		PricingMode: pricing.ModeRate,
		DailyRate:   40,
		Active:      true,
	})

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		store:     NewMemoryStore(),
		catalog:   catalog,
		gateway:   newFakeGateway(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
		tokens:    accesstoken.NewService(accesstoken.NewMemoryStore(), 0),
		logs:      hook,
	}
	f.svc = NewService(Deps{
		Store:     f.store,
		Catalog:   catalog,
		Gateway:   f.gateway,
		Tokens:    f.tokens,
		Mailer:    f.mailer,
		Publisher: f.publisher,
		Log:       log,
	})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func validInput() CreateInput {
	return CreateInput{
		GymID:      testGymID,
		PackageID:  testPackage,
		StartDate:  "2026-02-01",
		EndDate:    "2026-02-05",
		GuestName:  "  Sam   Lee ",
		GuestEmail: "sam@example.com",
	}
}

// createAwaiting creates a booking and returns it in awaiting_approval.
func (f *fixture) createAwaiting(t *testing.T) *Booking {
	t.Helper()
	res, err := f.svc.Create(context.Background(), validInput(), Actor{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res.Booking
}

func (f *fixture) status(t *testing.T, id string) Status {
	t.Helper()
	b, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return b.Status
}

var (
	admin = Actor{UID: "admin-1", Admin: true}
	owner = Actor{UID: testOwner, UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"}
)

package notify

import (
	"context"
	"sort"
	"sync"

	"availability-notifier/internal/models"
	"availability-notifier/internal/sender"
	"availability-notifier/internal/store"

	"github.com/stretchr/testify/mock"
)

// ==========================
// Mock Implementations
// ==========================

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg sender.Message) (*sender.Delivery, error) {
	args := m.Called(ctx, msg)
	d, _ := args.Get(0).(*sender.Delivery)
	return d, args.Error(1)
}

func (m *mockSender) Channel() string { return "sms" }

func to(recipient string) interface{} {
	return mock.MatchedBy(func(msg sender.Message) bool { return msg.Recipient == recipient })
}

func delivered(addr string) *sender.Delivery {
	return &sender.Delivery{Address: addr, MessageID: "msg-" + addr, Delivered: true, Status: "SUCCESSFUL"}
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockStore) QueryPending(ctx context.Context, locationID string) ([]models.Subscription, error) {
	args := m.Called(ctx, locationID)
	subs, _ := args.Get(0).([]models.Subscription)
	return subs, args.Error(1)
}

func (m *mockStore) ConditionalDelete(ctx context.Context, locationID, expectedRecipient string) error {
	return m.Called(ctx, locationID, expectedRecipient).Error(0)
}

// memStore keeps subscriptions in memory with the same guard semantics as
// the real backends.
type memStore struct {
	mu   sync.Mutex
	subs map[string]map[string]string // location -> recipient -> lang
}

func newMemStore(subs ...models.Subscription) *memStore {
	s := &memStore{subs: make(map[string]map[string]string)}
	for _, sub := range subs {
		_ = s.Put(context.Background(), sub)
	}
	return s
}

func (s *memStore) Put(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[sub.LocationID] == nil {
		s.subs[sub.LocationID] = make(map[string]string)
	}
	s.subs[sub.LocationID][sub.Recipient] = sub.Language
	return nil
}

func (s *memStore) QueryPending(_ context.Context, locationID string) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subscription
	for r, lang := range s.subs[locationID] {
		out = append(out, models.Subscription{LocationID: locationID, Recipient: r, Language: lang})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipient < out[j].Recipient })
	return out, nil
}

func (s *memStore) ConditionalDelete(_ context.Context, locationID, expectedRecipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[locationID][expectedRecipient]; !ok {
		return store.ErrConditionFailed
	}
	delete(s.subs[locationID], expectedRecipient)
	return nil
}

// replace swaps the pending record for a location to a new recipient.
func (s *memStore) replace(locationID, oldRecipient string, sub models.Subscription) {
	s.mu.Lock()
	delete(s.subs[locationID], oldRecipient)
	s.mu.Unlock()
	_ = s.Put(context.Background(), sub)
}

func (s *memStore) has(locationID, recipient string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[locationID][recipient]
	return ok
}

type fakeSource struct {
	locations       []models.Location
	availability    []models.LocationAvailability
	locationsErr    error
	availabilityErr error

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) GetAvailability(context.Context, string) ([]models.LocationAvailability, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.availability, f.availabilityErr
}

func (f *fakeSource) GetLocations(context.Context, string) ([]models.Location, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.locations, f.locationsErr
}

func slots(counts ...int) []models.TimeSlot {
	out := make([]models.TimeSlot, len(counts))
	for i, c := range counts {
		out[i] = models.TimeSlot{Slots: models.IntPtr(c)}
	}
	return out
}

func sub(location, recipient, lang string) models.Subscription {
	return models.Subscription{LocationID: location, Recipient: recipient, Language: lang}
}

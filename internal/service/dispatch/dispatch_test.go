package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"RideDesk/bot/chat"
	"RideDesk/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentLocation struct {
	chatID     string
	lat, lon   float64
	livePeriod int64
}

// fakeMessenger is safe for concurrent use; accept arbitration is exercised
// from many goroutines at once.
type fakeMessenger struct {
	mu        sync.Mutex
	texts     map[string][]string
	locations []sentLocation
	inline    map[string][]string
	answers   []string
	failFor   string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		texts:  make(map[string][]string),
		inline: make(map[string][]string),
	}
}

func (m *fakeMessenger) SendText(chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[chatID] = append(m.texts[chatID], text)
	return nil
}

func (m *fakeMessenger) SendMenu(chatID, text string, rows [][]chat.MenuButton) error { return nil }

func (m *fakeMessenger) SendInlineOptions(chatID, text string, buttons []chat.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inline[chatID] = append(m.inline[chatID], text)
	return nil
}

func (m *fakeMessenger) SendContactRequest(chatID, text, buttonText string) error  { return nil }
func (m *fakeMessenger) SendLocationRequest(chatID, text, buttonText string) error { return nil }

func (m *fakeMessenger) SendLocation(chatID string, lat, lon float64, livePeriod int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if chatID == m.failFor {
		return errors.New("blocked by user")
	}
	m.locations = append(m.locations, sentLocation{chatID, lat, lon, livePeriod})
	return nil
}

func (m *fakeMessenger) AnswerCallback(callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

// fakeRepo implements the arbitration contract with a mutex standing in for
// the store's atomic conditional update.
type fakeRepo struct {
	mu      sync.Mutex
	drivers map[string]*entity.Driver
	trips   map[string]*entity.Trip
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		drivers: make(map[string]*entity.Driver),
		trips:   make(map[string]*entity.Trip),
	}
}

func (r *fakeRepo) ListApprovedDrivers(ctx context.Context) ([]entity.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Driver
	for _, d := range r.drivers {
		if d.IsApproved() {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetDriver(ctx context.Context, chatID string) (*entity.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[chatID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) AcceptTrip(ctx context.Context, tripID, driverChatID string) (*entity.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[tripID]
	if !ok || t.Status != entity.TripPending {
		return nil, nil
	}
	t.Status = entity.TripAccepted
	t.DriverID = driverChatID
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) GetAcceptedTripByRider(ctx context.Context, riderChatID string) (*entity.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.RiderChatID == riderChatID && t.Status == entity.TripAccepted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

type recordSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordSink) Publish(eventType string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
}

func approvedDriver(chatID, name, phone string) *entity.Driver {
	d := entity.NewDriver(chatID)
	d.Name = name
	d.Phone = phone
	d.Step = entity.StepCompleted
	d.Approval = entity.ApprovalApproved
	return d
}

func pendingTrip(riderChatID string) *entity.Trip {
	t := entity.NewTrip(riderChatID, "Ama")
	t.Contact = "+233241234567"
	t.Destination = "Accra Mall"
	t.Pickup = &entity.Location{Latitude: 5.6037, Longitude: -0.187}
	return t
}

func TestAcceptDataRoundTrip(t *testing.T) {
	id, ok := ParseAcceptData(AcceptData("trip-1"))
	if !ok || id != "trip-1" {
		t.Fatalf("ParseAcceptData = %q, %v", id, ok)
	}
	if _, ok := ParseAcceptData("accept:"); ok {
		t.Fatal("empty trip id accepted")
	}
	if _, ok := ParseAcceptData("reject:trip-1"); ok {
		t.Fatal("foreign payload accepted")
	}
}

func TestBroadcastReachesApprovedDriversOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.drivers["d1"] = approvedDriver("d1", "Kofi", "+233201111111")
	repo.drivers["d2"] = approvedDriver("d2", "Yaw", "+233202222222")
	pendingDriver := entity.NewDriver("d3")
	pendingDriver.Step = entity.StepCompleted
	repo.drivers["d3"] = pendingDriver

	trip := pendingTrip("rider-1")
	repo.trips[trip.ID] = trip

	sink := &recordSink{}
	s := NewService(repo, sink, discardLogger())
	m := newFakeMessenger()

	if err := s.Broadcast(context.Background(), m, trip); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for _, id := range []string{"d1", "d2"} {
		if len(m.inline[id]) != 1 {
			t.Fatalf("driver %s received %d offers, want 1", id, len(m.inline[id]))
		}
	}
	if len(m.inline["d3"]) != 0 {
		t.Fatal("unapproved driver received the offer")
	}
	if len(m.locations) != 2 {
		t.Fatalf("pickup location sent %d times, want 2", len(m.locations))
	}
	if len(sink.events) != 1 || sink.events[0] != "trip_requested" {
		t.Fatalf("events = %v", sink.events)
	}
}

func TestBroadcastContinuesPastFailedSend(t *testing.T) {
	repo := newFakeRepo()
	repo.drivers["d1"] = approvedDriver("d1", "Kofi", "+233201111111")
	repo.drivers["d2"] = approvedDriver("d2", "Yaw", "+233202222222")

	trip := pendingTrip("rider-1")
	repo.trips[trip.ID] = trip

	s := NewService(repo, nil, discardLogger())
	m := newFakeMessenger()
	m.failFor = "d1"

	if err := s.Broadcast(context.Background(), m, trip); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(m.inline["d2"]) != 1 {
		t.Fatal("failure for one driver stopped the broadcast")
	}
}

func TestBroadcastRequiresPickup(t *testing.T) {
	trip := entity.NewTrip("rider-1", "Ama")
	s := NewService(newFakeRepo(), nil, discardLogger())
	if err := s.Broadcast(context.Background(), newFakeMessenger(), trip); err == nil {
		t.Fatal("expected error for trip without pickup")
	}
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	repo := newFakeRepo()
	trip := pendingTrip("rider-1")
	repo.trips[trip.ID] = trip

	const drivers = 8
	for i := 0; i < drivers; i++ {
		id := fmt.Sprintf("d%d", i)
		repo.drivers[id] = approvedDriver(id, "Driver "+id, "+23320000000"+id)
	}

	s := NewService(repo, nil, discardLogger())
	m := newFakeMessenger()

	var wg sync.WaitGroup
	for i := 0; i < drivers; i++ {
		id := fmt.Sprintf("d%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.HandleAccept(context.Background(), m, id, "cb-"+id, AcceptData(trip.ID)); err != nil {
				t.Errorf("accept %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	winners := 0
	for _, a := range m.answers {
		if strings.Contains(a, "yours") {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if len(m.answers) != drivers {
		t.Fatalf("answers = %d, want %d", len(m.answers), drivers)
	}

	stored := repo.trips[trip.ID]
	if stored.Status != entity.TripAccepted || stored.DriverID == "" {
		t.Fatalf("trip after race: %+v", stored)
	}
	// Rider is told exactly once.
	if got := len(m.texts["rider-1"]); got != 1 {
		t.Fatalf("rider notified %d times, want 1", got)
	}
	// The winning driver got the trip details.
	if got := len(m.texts[stored.DriverID]); got != 1 {
		t.Fatalf("winner notified %d times, want 1", got)
	}
}

func TestAcceptUnknownTrip(t *testing.T) {
	s := NewService(newFakeRepo(), nil, discardLogger())
	m := newFakeMessenger()

	if err := s.HandleAccept(context.Background(), m, "d1", "cb-1", AcceptData("no-such-trip")); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(m.answers) != 1 || !strings.Contains(m.answers[0], "no longer available") {
		t.Fatalf("answers = %v", m.answers)
	}
	if len(m.texts) != 0 {
		t.Fatalf("texts sent for unknown trip: %v", m.texts)
	}
}

func TestAcceptMalformedPayload(t *testing.T) {
	s := NewService(newFakeRepo(), nil, discardLogger())
	if err := s.HandleAccept(context.Background(), newFakeMessenger(), "d1", "cb-1", "accept:"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestRelayLocation(t *testing.T) {
	repo := newFakeRepo()
	trip := pendingTrip("rider-1")
	trip.Status = entity.TripAccepted
	trip.DriverID = "d1"
	repo.trips[trip.ID] = trip

	s := NewService(repo, nil, discardLogger())
	m := newFakeMessenger()

	sent, err := s.RelayLocation(context.Background(), m, "rider-1", chat.LocationInput{
		Latitude: 5.61, Longitude: -0.19, LivePeriod: 300,
	})
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if !sent {
		t.Fatal("relay not sent for accepted trip")
	}
	if len(m.locations) != 1 {
		t.Fatalf("locations = %d, want 1", len(m.locations))
	}
	got := m.locations[0]
	if got.chatID != "d1" || got.lat != 5.61 || got.livePeriod != 300 {
		t.Fatalf("relayed %+v", got)
	}
}

func TestRelayDroppedWithoutAcceptedTrip(t *testing.T) {
	repo := newFakeRepo()
	trip := pendingTrip("rider-1")
	repo.trips[trip.ID] = trip // still pending

	s := NewService(repo, nil, discardLogger())
	m := newFakeMessenger()

	sent, err := s.RelayLocation(context.Background(), m, "rider-1", chat.LocationInput{Latitude: 1, Longitude: 2})
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if sent {
		t.Fatal("relay sent without an accepted trip")
	}
	if len(m.locations) != 0 {
		t.Fatal("location forwarded without an accepted trip")
	}
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/registry"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type sentMessage struct {
	username string
	message  string
}

type stubNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	block   map[string]chan struct{}
}

func (n *stubNotifier) Send(ctx context.Context, username, message string) error {
	if ch, ok := n.block[username]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{username: username, message: message})
	if err, ok := n.failFor[username]; ok {
		return err
	}
	return nil
}

func (n *stubNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.username)
	}
	sort.Strings(out)
	return out
}

type noSubscriptionNotifier struct {
	mu       sync.Mutex
	attempts []string
}

func (n *noSubscriptionNotifier) Send(_ context.Context, username, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts = append(n.attempts, username)
	return domain.ErrNoSubscription
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newRegistries() (*registry.AccessPoints, *registry.Users) {
	return registry.NewAccessPoints(), registry.NewUsers(registry.WithBcryptCost(bcrypt.MinCost))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReportService_Fulfill_NotifiesSubscribers(t *testing.T) {
	aps, users := newRegistries()
	ap := aps.Create(domain.Location{Lat: 51.5, Long: -0.12}, domain.AccessPointOptions{Name: "Lift A"})
	other := aps.Create(domain.Location{}, domain.AccessPointOptions{})
	for _, name := range []string{"alice", "bob", "carol"} {
		_, _ = users.Create(name, "pw")
	}
	_ = users.Subscribe("alice", ap.ID)
	_ = users.Subscribe("bob", ap.ID)
	_ = users.Subscribe("carol", other.ID)

	notifier := &stubNotifier{}
	svc := NewReportService(aps, users, notifier, 4, zerolog.Nop())

	inRepair := domain.StatusInRepair
	result, err := svc.Fulfill(context.Background(), domain.NewReport(ap.ID, domain.ReportOptions{
		Status:      &inRepair,
		Description: "engineer on site",
	}))
	if err != nil {
		t.Fatalf("Fulfill: %v", err)
	}

	if got := notifier.recipients(); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("unexpected recipients: %v", got)
	}
	if result.Delivered != 2 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.AccessPoint.Status != domain.StatusInRepair {
		t.Fatalf("result carries stale status: %s", result.AccessPoint.Status)
	}
	if msg := notifier.sent[0].message; msg != "Lift A is now In Repair: engineer on site" {
		t.Fatalf("unexpected message: %q", msg)
	}

	stored, _ := aps.Get(ap.ID)
	if stored.Status != domain.StatusInRepair {
		t.Fatalf("status not committed: %s", stored.Status)
	}
}

func TestReportService_Fulfill_UnknownAccessPoint(t *testing.T) {
	aps, users := newRegistries()
	_, _ = users.Create("alice", "pw")
	_ = users.Subscribe("alice", 7)

	notifier := &stubNotifier{}
	svc := NewReportService(aps, users, notifier, 0, zerolog.Nop())

	_, err := svc.Fulfill(context.Background(), domain.NewReport(7, domain.ReportOptions{}))
	if !errors.Is(err, domain.ErrAccessPointNotFound) {
		t.Fatalf("expected ErrAccessPointNotFound, got %v", err)
	}
	if len(notifier.recipients()) != 0 {
		t.Fatalf("no notification may be sent for an unknown access point")
	}
}

func TestReportService_Fulfill_DeliveryFailuresAreNotFatal(t *testing.T) {
	aps, users := newRegistries()
	ap := aps.Create(domain.Location{}, domain.AccessPointOptions{})
	for _, name := range []string{"alice", "bob", "carol"} {
		_, _ = users.Create(name, "pw")
		_ = users.Subscribe(name, ap.ID)
	}

	notifier := &stubNotifier{failFor: map[string]error{
		"alice": domain.ErrDelivery,
		"bob":   domain.ErrNoSubscription,
	}}
	svc := NewReportService(aps, users, notifier, 2, zerolog.Nop())

	working := domain.StatusWorking
	result, err := svc.Fulfill(context.Background(), domain.NewReport(ap.ID, domain.ReportOptions{Status: &working}))
	if err != nil {
		t.Fatalf("delivery failures must not fail the report: %v", err)
	}
	if result.Delivered != 1 || result.Failed != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(notifier.recipients()) != 3 {
		t.Fatalf("every subscriber should be attempted, got %v", notifier.recipients())
	}

	stored, _ := aps.Get(ap.ID)
	if stored.Status != domain.StatusWorking {
		t.Fatalf("status change must survive delivery failures, got %s", stored.Status)
	}
}

func TestReportService_Fulfill_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	aps, users := newRegistries()
	ap := aps.Create(domain.Location{}, domain.AccessPointOptions{})
	for _, name := range []string{"alice", "bob"} {
		_, _ = users.Create(name, "pw")
		_ = users.Subscribe(name, ap.ID)
	}

	release := make(chan struct{})
	notifier := &stubNotifier{block: map[string]chan struct{}{"alice": release}}
	svc := NewReportService(aps, users, notifier, 2, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Fulfill(context.Background(), domain.NewReport(ap.ID, domain.ReportOptions{}))
	}()

	deadline := time.After(2 * time.Second)
	for {
		if got := notifier.recipients(); len(got) == 1 && got[0] == "bob" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("bob was not notified while alice was blocked")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Fulfill did not return after the slow delivery finished")
	}
}

// Walks the end-to-end scenario: create, report, register users, subscribe,
// report again with a subscriber that has no push endpoint.
func TestReportService_Scenario(t *testing.T) {
	aps, users := newRegistries()
	notifier := &noSubscriptionNotifier{}
	svc := NewReportService(aps, users, notifier, 0, zerolog.Nop())
	ctx := context.Background()

	ap := aps.Create(domain.Location{Lat: 51.5, Long: -0.12}, domain.AccessPointOptions{})
	if ap.ID != 0 {
		t.Fatalf("expected id 0, got %d", ap.ID)
	}
	got, _ := aps.Get(0)
	if got.Status != domain.StatusNotWorking {
		t.Fatalf("expected NotWorking, got %s", got.Status)
	}

	if _, err := svc.Fulfill(ctx, domain.NewReport(0, domain.ReportOptions{})); err != nil {
		t.Fatalf("first report: %v", err)
	}
	got, _ = aps.Get(0)
	if got.Status != domain.StatusNotWorking {
		t.Fatalf("expected NotWorking after report, got %s", got.Status)
	}

	if _, err := users.Create("alice", "pw123"); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if _, err := users.Create("alice", "pw123"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := users.Subscribe("alice", 0); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if subs := users.SubscribersOf(0); len(subs) != 1 || subs[0] != "alice" {
		t.Fatalf("unexpected subscribers: %v", subs)
	}

	result, err := svc.Fulfill(ctx, domain.NewReport(0, domain.ReportOptions{}))
	if err != nil {
		t.Fatalf("second report should succeed without a push endpoint: %v", err)
	}
	if len(notifier.attempts) != 1 || notifier.attempts[0] != "alice" {
		t.Fatalf("expected exactly one send to alice, got %v", notifier.attempts)
	}
	if result.Failed != 1 || result.Delivered != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestNotificationText(t *testing.T) {
	ap := domain.NewAccessPoint(domain.Location{}, domain.AccessPointOptions{})
	ap.ID = 4
	text := notificationText(ap, domain.NewReport(4, domain.ReportOptions{}))
	if text != "Access point #4 is now Not Working" {
		t.Fatalf("unexpected text: %q", text)
	}
	if strings.Contains(text, ":") {
		t.Fatalf("no description separator expected: %q", text)
	}
}

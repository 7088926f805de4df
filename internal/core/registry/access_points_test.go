package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quacc/access-point-api/internal/core/domain"
)

func TestAccessPoints_CreateAssignsSequentialIDs(t *testing.T) {
	r := NewAccessPoints()

	first := r.Create(domain.Location{Lat: 51.5, Long: -0.12}, domain.AccessPointOptions{})
	if first.ID != 0 {
		t.Fatalf("expected first id 0, got %d", first.ID)
	}
	if first.Status != domain.StatusNotWorking {
		t.Fatalf("expected default status NotWorking, got %s", first.Status)
	}

	second := r.Create(domain.Location{}, domain.AccessPointOptions{Name: "Lift"})
	if second.ID != 1 {
		t.Fatalf("expected second id 1, got %d", second.ID)
	}
}

func TestAccessPoints_ConcurrentCreateIDsAreDistinctAndContiguous(t *testing.T) {
	r := NewAccessPoints()
	const n = 200

	ids := make([]domain.AccessPointID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = r.Create(domain.Location{Lat: float64(i)}, domain.AccessPointOptions{}).ID
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != domain.AccessPointID(i) {
			t.Fatalf("ids not contiguous from 0: position %d has id %d", i, id)
		}
	}
	if r.Len() != n {
		t.Fatalf("expected %d access points, got %d", n, r.Len())
	}
}

func TestAccessPoints_CreateAfterLoadContinuesFromHighestID(t *testing.T) {
	store := newStubStore()
	store.docs["aps"] = []byte(`{"4":{"name":"Ramp","kind":"Ramp","location":{"lat":1,"long":2},"status":"Working"}}`)

	r := LoadAccessPoints(context.Background(), store, "aps", zerolog.Nop())
	ap := r.Create(domain.Location{}, domain.AccessPointOptions{})
	if ap.ID != 5 {
		t.Fatalf("expected id 5 after loading id 4, got %d", ap.ID)
	}
}

func TestAccessPoints_SetStatus(t *testing.T) {
	r := NewAccessPoints()
	ap := r.Create(domain.Location{}, domain.AccessPointOptions{})

	if err := r.SetStatus(ap.ID, domain.StatusInRepair); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := r.Get(ap.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusInRepair || got.StatusDisplay != "In Repair" {
		t.Fatalf("unexpected status after update: %s / %s", got.Status, got.StatusDisplay)
	}
}

func TestAccessPoints_SetStatusUnknownIDLeavesRegistryUnchanged(t *testing.T) {
	r := NewAccessPoints()
	r.Create(domain.Location{}, domain.AccessPointOptions{})
	before := r.List()

	err := r.SetStatus(42, domain.StatusWorking)
	if !errors.Is(err, domain.ErrAccessPointNotFound) {
		t.Fatalf("expected ErrAccessPointNotFound, got %v", err)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected error to match ErrNotFound")
	}

	after := r.List()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("registry changed: before %+v after %+v", before, after)
	}
}

func TestAccessPoints_GetReturnsCopy(t *testing.T) {
	r := NewAccessPoints()
	ap := r.Create(domain.Location{}, domain.AccessPointOptions{Name: "original"})

	ap.Name = "mutated"
	got, _ := r.Get(ap.ID)
	if got.Name != "original" {
		t.Fatalf("registry entry changed through returned value")
	}
}

func TestAccessPoints_SaveLoadRoundTrip(t *testing.T) {
	r := NewAccessPoints()
	working := domain.StatusWorking
	kind := domain.NewKind("Interpreter")
	other := domain.NewKind("Hearing loop")
	r.Create(domain.Location{Lat: 51.5, Long: -0.12}, domain.AccessPointOptions{Name: "Desk", Status: &working, Kind: &kind})
	r.Create(domain.Location{Lat: -33.9, Long: 151.2}, domain.AccessPointOptions{Kind: &other})
	r.Create(domain.Location{}, domain.AccessPointOptions{})

	store := newStubStore()
	if err := r.Save(context.Background(), store, "aps"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := LoadAccessPoints(context.Background(), store, "aps", zerolog.Nop())
	want, got := r.List(), loaded.List()
	if len(want) != len(got) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("record %d differs:\n want %+v\n got  %+v", i, want[i], got[i])
		}
	}
}

func TestAccessPoints_SaveWriteFailure(t *testing.T) {
	r := NewAccessPoints()
	store := newStubStore()
	store.writeErr = errors.New("disk full")

	if err := r.Save(context.Background(), store, "aps"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestLoadAccessPoints_FailuresYieldEmptyRegistry(t *testing.T) {
	missing := newStubStore()
	if r := LoadAccessPoints(context.Background(), missing, "aps", zerolog.Nop()); r.Len() != 0 {
		t.Fatalf("expected empty registry for missing document")
	}

	corrupt := newStubStore()
	corrupt.docs["aps"] = []byte(`{"0": {"name": "half`)
	if r := LoadAccessPoints(context.Background(), corrupt, "aps", zerolog.Nop()); r.Len() != 0 {
		t.Fatalf("expected empty registry for corrupt document")
	}
}

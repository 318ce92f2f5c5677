package hospital

import (
	"strings"
	"sync"
	"testing"

	"github.com/linnemanlabs/wardline/internal/geo"
)

func mustRegistry(t *testing.T, hs []Hospital) *Registry {
	t.Helper()
	r, err := NewRegistry(hs)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func bedsByName(r *Registry) map[string]int {
	out := make(map[string]int)
	for _, h := range r.Snapshot() {
		out[h.Name] = h.BedsAvailable
	}
	return out
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		hospitals []Hospital
		errSubstr string
	}{
		{"empty name", []Hospital{{Name: "", BedsAvailable: 1}}, "name is required"},
		{"negative beds", []Hospital{{Name: "A", BedsAvailable: -1}}, "must not be negative"},
		{"bad location", []Hospital{{Name: "A", Location: geo.Point{Lat: 91}}}, "invalid location"},
		{"duplicate", []Hospital{{Name: "A"}, {Name: "A"}}, "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRegistry(tt.hospitals)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.errSubstr)
			}
		})
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, nil)
	if _, ok := r.Assign(geo.Point{}); ok {
		t.Error("Assign on empty registry returned ok=true")
	}
}

func TestAssign_PicksNearest(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, []Hospital{
		{Name: "Far", Location: geo.Point{Lat: 10, Lng: 10}, BedsAvailable: 3},
		{Name: "Near", Location: geo.Point{Lat: 0.5, Lng: 0.5}, BedsAvailable: 3},
		{Name: "Mid", Location: geo.Point{Lat: 2, Lng: 2}, BedsAvailable: 3},
	})

	a, ok := r.Assign(geo.Point{})
	if !ok {
		t.Fatal("expected assignment")
	}
	if a.Hospital != "Near" {
		t.Errorf("hospital = %q, want %q", a.Hospital, "Near")
	}
	if a.BedsRemaining != 2 {
		t.Errorf("BedsRemaining = %d, want 2", a.BedsRemaining)
	}
	want := geo.Distance(geo.Point{}, geo.Point{Lat: 0.5, Lng: 0.5})
	if a.DistanceMiles != want {
		t.Errorf("DistanceMiles = %v, want %v", a.DistanceMiles, want)
	}
}

func TestAssign_SkipsFullHospitals(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, []Hospital{
		{Name: "NearFull", Location: geo.Point{Lat: 0.1, Lng: 0}, BedsAvailable: 0},
		{Name: "Open", Location: geo.Point{Lat: 5, Lng: 0}, BedsAvailable: 1},
	})

	a, ok := r.Assign(geo.Point{})
	if !ok {
		t.Fatal("expected assignment")
	}
	if a.Hospital != "Open" {
		t.Errorf("hospital = %q, want %q", a.Hospital, "Open")
	}
}

func TestAssign_NeverSelectsZeroBeds(t *testing.T) {
	t.Parallel()

	hs := Default()
	for i := range hs {
		if i%2 == 0 {
			hs[i].BedsAvailable = 0
		}
	}
	r := mustRegistry(t, hs)

	patients := []geo.Point{
		{Lat: 40.741895, Lng: -74.11},
		{Lat: 40.742663, Lng: -78.98},
		{Lat: 44, Lng: -73.98},
		{Lat: 41.742743, Lng: -70.66},
		{Lat: 0, Lng: 0},
	}
	for _, p := range patients {
		for {
			a, ok := r.Assign(p)
			if !ok {
				break
			}
			if i := r.index[a.Hospital]; i%2 == 0 {
				t.Fatalf("Assign(%v) selected %q which had zero beds", p, a.Hospital)
			}
		}
	}
	if r.TotalBeds() != 0 {
		t.Errorf("TotalBeds = %d after draining, want 0", r.TotalBeds())
	}
}

func TestAssign_DecrementsOnlySelected(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, Default())
	before := bedsByName(r)

	a, ok := r.Assign(geo.Point{Lat: 40.743029, Lng: -72.11})
	if !ok {
		t.Fatal("expected assignment")
	}
	if a.Hospital != "Parth Hospital" {
		t.Errorf("hospital = %q, want %q", a.Hospital, "Parth Hospital")
	}

	after := bedsByName(r)
	for name, n := range before {
		want := n
		if name == a.Hospital {
			want = n - 1
		}
		if after[name] != want {
			t.Errorf("%s beds = %d, want %d", name, after[name], want)
		}
	}
}

func TestAssign_NoCapacityLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	hs := Default()
	for i := range hs {
		hs[i].BedsAvailable = 0
	}
	r := mustRegistry(t, hs)
	before := r.Snapshot()

	a, ok := r.Assign(geo.Point{Lat: 40.74, Lng: -74})
	if ok {
		t.Fatalf("Assign returned ok=true (%+v), want no hospital", a)
	}
	if a != (Assignment{}) {
		t.Errorf("Assign returned non-zero assignment %+v", a)
	}

	after := r.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("hospital %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestAssign_TieBreakFirstInTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		hospitals []Hospital
		want      string
	}{
		{
			name: "same location",
			hospitals: []Hospital{
				{Name: "First", Location: geo.Point{Lat: 1, Lng: 1}, BedsAvailable: 1},
				{Name: "Second", Location: geo.Point{Lat: 1, Lng: 1}, BedsAvailable: 1},
			},
			want: "First",
		},
		{
			name: "mirrored across patient",
			hospitals: []Hospital{
				{Name: "East", Location: geo.Point{Lat: 0, Lng: 1}, BedsAvailable: 1},
				{Name: "West", Location: geo.Point{Lat: 0, Lng: -1}, BedsAvailable: 1},
			},
			want: "East",
		},
		{
			name: "mirrored, reversed order",
			hospitals: []Hospital{
				{Name: "West", Location: geo.Point{Lat: 0, Lng: -1}, BedsAvailable: 1},
				{Name: "East", Location: geo.Point{Lat: 0, Lng: 1}, BedsAvailable: 1},
			},
			want: "West",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := mustRegistry(t, tt.hospitals)
			a, ok := r.Assign(geo.Point{})
			if !ok {
				t.Fatal("expected assignment")
			}
			if a.Hospital != tt.want {
				t.Errorf("hospital = %q, want %q", a.Hospital, tt.want)
			}
		})
	}
}

func TestAssign_FallsThroughWhenTiedHospitalFills(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, []Hospital{
		{Name: "First", Location: geo.Point{Lat: 1, Lng: 1}, BedsAvailable: 1},
		{Name: "Second", Location: geo.Point{Lat: 1, Lng: 1}, BedsAvailable: 1},
	})

	got := []string{}
	for {
		a, ok := r.Assign(geo.Point{})
		if !ok {
			break
		}
		got = append(got, a.Hospital)
	}
	if len(got) != 2 || got[0] != "First" || got[1] != "Second" {
		t.Errorf("assignment order = %v, want [First Second]", got)
	}
}

func TestNearest_DoesNotMutate(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, Default())
	before := r.TotalBeds()

	a, ok := r.Nearest(geo.Point{Lat: 44, Lng: -73.98})
	if !ok {
		t.Fatal("expected a hospital")
	}
	if a.Hospital != "Kokilaben Hospital" {
		t.Errorf("hospital = %q, want %q", a.Hospital, "Kokilaben Hospital")
	}
	if a.BedsRemaining != 7 {
		t.Errorf("BedsRemaining = %d, want 7", a.BedsRemaining)
	}
	if r.TotalBeds() != before {
		t.Errorf("TotalBeds = %d, want %d", r.TotalBeds(), before)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, Default())
	snap := r.Snapshot()
	snap[0].BedsAvailable = 999

	h, ok := r.Get(snap[0].Name)
	if !ok {
		t.Fatalf("Get(%q) not found", snap[0].Name)
	}
	if h.BedsAvailable == 999 {
		t.Error("mutating snapshot changed registry state")
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, Default())
	if _, ok := r.Get("Nowhere General"); ok {
		t.Error("expected ok=false for unknown hospital")
	}
	if r.Len() != 11 {
		t.Errorf("Len = %d, want 11", r.Len())
	}
}

func TestAssign_ConcurrentNeverOverbooks(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, []Hospital{
		{Name: "A", Location: geo.Point{Lat: 0, Lng: 0.1}, BedsAvailable: 7},
		{Name: "B", Location: geo.Point{Lat: 0, Lng: 0.2}, BedsAvailable: 5},
	})

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned = map[string]int{}
		failed   int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, ok := r.Assign(geo.Point{})
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				failed++
				return
			}
			assigned[a.Hospital]++
		}()
	}
	wg.Wait()

	if assigned["A"] != 7 || assigned["B"] != 5 {
		t.Errorf("assigned = %v, want A=7 B=5", assigned)
	}
	if failed != workers-12 {
		t.Errorf("failed = %d, want %d", failed, workers-12)
	}
	for _, h := range r.Snapshot() {
		if h.BedsAvailable != 0 {
			t.Errorf("%s beds = %d, want 0", h.Name, h.BedsAvailable)
		}
	}
}

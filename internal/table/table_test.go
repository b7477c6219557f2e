package table

import (
	"testing"

	"github.com/localpub/localpub/internal/domain"
)

func record(instance, service string) *domain.ServiceRecord {
	return &domain.ServiceRecord{
		Instance:   instance,
		Service:    service,
		Target:     instance + ".local",
		Port:       80,
		TTLSeconds: 3600,
	}
}

func TestPutGetRemove(t *testing.T) {
	tbl := New()

	if _, ok := tbl.Get("c1"); ok {
		t.Error("Get() on empty table should miss")
	}

	tbl.Put("c1", Entry{State: Published, Record: record("web", "_http._tcp")})

	e, ok := tbl.Get("c1")
	if !ok {
		t.Fatal("Get() should hit after Put()")
	}
	if e.State != Published {
		t.Errorf("State = %v, want Published", e.State)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}

	tbl.Remove("c1")
	if _, ok := tbl.Get("c1"); ok {
		t.Error("Get() should miss after Remove()")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	tbl := New()
	tbl.Put("c1", Entry{State: Published, Record: record("a", "_http._tcp")})
	tbl.Put("c2", Entry{State: Publishing, Record: record("b", "_http._tcp")})

	snapshot := tbl.All()
	if len(snapshot) != 2 {
		t.Fatalf("All() length = %d, want 2", len(snapshot))
	}

	// Mutating the snapshot must not touch the table.
	delete(snapshot, "c1")
	if _, ok := tbl.Get("c1"); !ok {
		t.Error("mutating the snapshot affected the table")
	}
}

func TestCompareAndTransition(t *testing.T) {
	tests := []struct {
		name   string
		seed   *Entry // nil = no entry
		expect State
		want   bool
	}{
		{
			name:   "matching state transitions",
			seed:   &Entry{State: Publishing, Record: record("a", "_http._tcp")},
			expect: Publishing,
			want:   true,
		},
		{
			name:   "mismatched state is rejected",
			seed:   &Entry{State: Unpublishing, Record: record("a", "_http._tcp")},
			expect: Publishing,
			want:   false,
		},
		{
			name:   "missing entry is rejected",
			seed:   nil,
			expect: Publishing,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New()
			if tt.seed != nil {
				tbl.Put("c1", *tt.seed)
			}

			next := Entry{State: Published, Record: record("a", "_http._tcp")}
			got := tbl.CompareAndTransition("c1", tt.expect, next)
			if got != tt.want {
				t.Fatalf("CompareAndTransition() = %v, want %v", got, tt.want)
			}

			if tt.want {
				e, _ := tbl.Get("c1")
				if e.State != Published {
					t.Errorf("State after transition = %v, want Published", e.State)
				}
			} else if tt.seed != nil {
				e, _ := tbl.Get("c1")
				if e.State != tt.seed.State {
					t.Errorf("State = %v, want untouched %v", e.State, tt.seed.State)
				}
			}
		})
	}
}

func TestClaimant(t *testing.T) {
	tbl := New()
	tbl.Put("holder", Entry{State: Published, Record: record("x", "_http._tcp")})
	tbl.Put("leaving", Entry{State: Unpublishing, Record: record("y", "_http._tcp")})

	if id, ok := tbl.Claimant("x", "_http._tcp", "other"); !ok || id != "holder" {
		t.Errorf("Claimant(x) = %q, %v; want holder, true", id, ok)
	}

	// The holder itself is excluded.
	if _, ok := tbl.Claimant("x", "_http._tcp", "holder"); ok {
		t.Error("Claimant() should exclude the requesting container")
	}

	// Unpublishing entries do not claim the name.
	if _, ok := tbl.Claimant("y", "_http._tcp", "other"); ok {
		t.Error("Claimant() should ignore entries being unpublished")
	}

	// Different type pair is free.
	if _, ok := tbl.Claimant("x", "_ipp._tcp", "other"); ok {
		t.Error("Claimant() should key on the instance/type pair")
	}
}

// CLAUDE:SUMMARY Store tests: recency-window filtering, bandit arm round-trip, run log ordering.
package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/prospect/dbopen"
	"github.com/hazyhaar/prospect/leads/internal/bandit"

	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return New(db)
}

func TestSeenDomainRecencyWindow(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return base })

	if err := s.MarkSeen(ctx, "Acme.com"); err != nil {
		t.Fatal(err)
	}

	// Inside the window: seen (case-insensitive).
	seen, err := s.SeenWithin(ctx, "acme.com", 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("SeenWithin inside window = false, want true")
	}

	// 40 days later with a 30-day window: no longer seen.
	s.WithClock(func() time.Time { return base.Add(40 * 24 * time.Hour) })
	seen, err = s.SeenWithin(ctx, "acme.com", 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("SeenWithin outside window = true, want false")
	}
}

func TestFilterUnseen(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.MarkSeen(ctx, "seen.com"); err != nil {
		t.Fatal(err)
	}

	got, err := s.FilterUnseen(ctx, []string{"fresh.com", "seen.com", "new.com"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "fresh.com" || got[1] != "new.com" {
		t.Errorf("FilterUnseen = %v, want [fresh.com new.com] in input order", got)
	}
}

func TestMarkSeenConcurrentWriters(t *testing.T) {
	// WHY: crawl workers mark domains from separate goroutines over one
	// handle; the transactional write path must not drop any of them.
	ctx := context.Background()
	s := testStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.MarkSeen(ctx, fmt.Sprintf("site-%d.com", i)); err != nil {
				t.Errorf("MarkSeen: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.FilterUnseen(ctx, []string{"site-0.com", "site-9.com", "other.com"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "other.com" {
		t.Errorf("FilterUnseen = %v, want only the unmarked domain", got)
	}
}

func TestBanditArmRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	arm := bandit.Arm{Trials: 7, Successes: 3, LastAt: time.Unix(1760000000, 0).UTC()}
	if err := s.SaveArm(ctx, "us-nj|packaging|smb", "email", arm); err != nil {
		t.Fatal(err)
	}
	// Upsert overwrites.
	arm.Trials = 8
	if err := s.SaveArm(ctx, "us-nj|packaging|smb", "email", arm); err != nil {
		t.Fatal(err)
	}

	arms, err := s.LoadArms(ctx, "us-nj|packaging|smb")
	if err != nil {
		t.Fatal(err)
	}
	got := arms["email"]
	if got.Trials != 8 || got.Successes != 3 {
		t.Errorf("arm = %+v, want trials 8 successes 3", got)
	}
	if !got.LastAt.Equal(arm.LastAt) {
		t.Errorf("LastAt = %v, want %v", got.LastAt, arm.LastAt)
	}

	// Unknown segment is empty, not an error.
	arms, err = s.LoadArms(ctx, "other")
	if err != nil || len(arms) != 0 {
		t.Errorf("LoadArms(other) = %v, %v; want empty, nil", arms, err)
	}
}

func TestRunLog(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for i, id := range []string{"run_a", "run_b", "run_c"} {
		err := s.RecordRun(ctx, Run{
			ID:         id,
			StartedAt:  time.Unix(int64(1760000000+i*60), 0),
			Duration:   1500 * time.Millisecond,
			Queries:    12,
			Results:    40,
			Candidates: 5,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != "run_c" || runs[1].ID != "run_b" {
		t.Errorf("order = [%s %s], want newest first", runs[0].ID, runs[1].ID)
	}
	if runs[0].Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", runs[0].Duration)
	}

	if err := s.RecordRun(ctx, Run{}); err == nil {
		t.Error("RecordRun without id: err = nil, want error")
	}
}

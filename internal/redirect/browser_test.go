package redirect

import (
	"sync"
	"testing"
)

func TestHopRecorder_ConcurrentRecordAndSnapshot(t *testing.T) {
	t.Parallel()

	rec := &hopRecorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.Record("https://example.com/hop")
				_ = rec.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := len(rec.Snapshot()); got != 800 {
		t.Fatalf("expected 800 recorded hops, got %d", got)
	}
}

func TestHopRecorder_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	rec := &hopRecorder{}
	rec.Record("https://example.com/a")

	snap := rec.Snapshot()
	rec.Record("https://example.com/b")

	if len(snap) != 1 {
		t.Fatalf("snapshot changed after a later Record: %d entries", len(snap))
	}
	if len(rec.Snapshot()) != 2 {
		t.Fatalf("recorder lost a hop")
	}
}

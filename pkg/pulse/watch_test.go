package pulse

import "testing"

func TestWatch(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	var snapshots [][]int
	r := Watch([]*Signal[int]{a, b}, func(values []int) {
		snapshot := make([]int, len(values))
		copy(snapshot, values)
		snapshots = append(snapshots, snapshot)
	})
	defer r.Dispose()

	if len(snapshots) != 1 {
		t.Fatalf("expected immediate run, got %d", len(snapshots))
	}
	if snapshots[0][0] != 1 || snapshots[0][1] != 2 {
		t.Errorf("expected [1 2], got %v", snapshots[0])
	}

	a.Set(3)
	if len(snapshots) != 2 {
		t.Fatalf("expected rerun on change, got %d runs", len(snapshots))
	}
	if snapshots[1][0] != 3 || snapshots[1][1] != 2 {
		t.Errorf("expected [3 2], got %v", snapshots[1])
	}

	Batch(func() {
		a.Set(4)
		b.Set(5)
	})
	if len(snapshots) != 3 {
		t.Fatalf("expected single rerun per batch, got %d runs", len(snapshots))
	}
	if snapshots[2][0] != 4 || snapshots[2][1] != 5 {
		t.Errorf("expected [4 5], got %v", snapshots[2])
	}
}

func TestWatchDispose(t *testing.T) {
	a := NewSignal(1)
	runs := 0
	r := Watch([]*Signal[int]{a}, func([]int) { runs++ })

	r.Dispose()
	a.Set(2)

	if runs != 1 {
		t.Errorf("disposed watch must not rerun, got %d runs", runs)
	}
}

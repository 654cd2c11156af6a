package bem

import (
	"sync"
	"testing"
	"time"

	"github.com/actisense/ngt-client/internal/bst"
)

// S5 from spec.md: a request with no response fires Timeout once, and is
// then gone from the pending map.
func TestCorrelator_S5_Timeout(t *testing.T) {
	c := NewCorrelator()
	var results []Result
	var mu sync.Mutex
	_, _ = c.Register(bst.IDBemCommandA, GetSetOperatingMode, 10*time.Millisecond, func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	c.ProcessTimeouts(time.Now()) // too early
	mu.Lock()
	early := len(results)
	mu.Unlock()
	if early != 0 {
		t.Fatalf("expected no completion before the deadline, got %d", early)
	}

	c.ProcessTimeouts(time.Now().Add(20 * time.Millisecond))
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].Reason != CompletedTimeout {
		t.Fatalf("expected exactly one Timeout completion, got %+v", results)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected pending map empty after timeout, got %d", c.Pending())
	}
}

// S6 from spec.md: duplicate key displacement.
func TestCorrelator_S6_DuplicateDisplacement(t *testing.T) {
	c := NewCorrelator()
	var first, second []Result
	_, _ = c.Register(bst.IDBemCommandA, GetSetOperatingMode, time.Second, func(r Result) {
		first = append(first, r)
	})
	_, key := c.Register(bst.IDBemCommandA, GetSetOperatingMode, time.Second, func(r Result) {
		second = append(second, r)
	})

	if len(first) != 1 || first[0].Reason != CompletedCanceled || first[0].Cancel != CancelDuplicateRequest {
		t.Fatalf("expected first registration canceled with DuplicateRequest, got %+v", first)
	}
	if len(second) != 0 {
		t.Fatalf("second registration should still be pending, got %+v", second)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected exactly one pending entry, got %d", c.Pending())
	}

	resp := Response{BstID: bst.IDBemResponseA, BemID: GetSetOperatingMode}
	if handled := c.Correlate(resp); !handled {
		t.Fatal("expected response to correlate to the second (active) registration")
	}
	if len(second) != 1 || second[0].Reason != CompletedResponse {
		t.Fatalf("expected second registration to complete with the response, got %+v", second)
	}
	_ = key
}

func TestCorrelator_Uniqueness(t *testing.T) {
	c := NewCorrelator()
	c.Register(bst.IDBemCommandA, GetSetOperatingMode, time.Second, func(Result) {})
	c.Register(bst.IDBemCommandB, GetSetOperatingMode, time.Second, func(Result) {}) // distinct response BST ID -> distinct key
	if c.Pending() != 2 {
		t.Fatalf("expected 2 distinct pending entries, got %d", c.Pending())
	}
}

func TestCorrelator_CorrelateMissIsUnsolicited(t *testing.T) {
	c := NewCorrelator()
	resp := Response{BstID: bst.IDBemResponseA, BemID: 0xF0}
	if c.Correlate(resp) {
		t.Fatal("expected no pending match for an unsolicited response")
	}
}

func TestCorrelator_ClearAllCancelsEverything(t *testing.T) {
	c := NewCorrelator()
	n := 5
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		idx := i
		c.Register(bst.IDBemCommandA, byte(i), time.Minute, func(r Result) { results[idx] = r })
	}
	c.ClearAll(CancelSessionClosed)
	if c.Pending() != 0 {
		t.Fatalf("expected empty pending map after ClearAll, got %d", c.Pending())
	}
	for i, r := range results {
		if r.Reason != CompletedCanceled || r.Cancel != CancelSessionClosed {
			t.Fatalf("entry %d not canceled correctly: %+v", i, r)
		}
	}
}

// Exactly-once completion: response races with timeout sweep, only one fires.
func TestCorrelator_ExactlyOnceCompletion(t *testing.T) {
	c := NewCorrelator()
	var count int
	var mu sync.Mutex
	c.Register(bst.IDBemCommandA, GetSetOperatingMode, time.Millisecond, func(Result) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Correlate(Response{BstID: bst.IDBemResponseA, BemID: GetSetOperatingMode})
	}()
	go func() {
		defer wg.Done()
		c.ProcessTimeouts(time.Now().Add(time.Hour))
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected exactly one completion, got %d", count)
	}
}

package readahead

import (
	"sync"
	"testing"
	"time"

	"github.com/kartikbazzad/secidx/pkg/table"
)

func alwaysRunning() bool { return false }

func TestEnqueueDequeueFIFO(t *testing.T) {
	var mu sync.Mutex
	q := New(&mu, 10)

	mu.Lock()
	q.Enqueue(table.ScanSpec{RowLimit: 1}, alwaysRunning)
	q.Enqueue(table.ScanSpec{RowLimit: 2}, alwaysRunning)
	mu.Unlock()

	mu.Lock()
	first, ok := q.Dequeue()
	mu.Unlock()
	if !ok || first.RowLimit != 1 {
		t.Fatalf("first = %+v, ok=%v, want RowLimit=1", first, ok)
	}

	mu.Lock()
	second, ok := q.Dequeue()
	mu.Unlock()
	if !ok || second.RowLimit != 2 {
		t.Fatalf("second = %+v, ok=%v, want RowLimit=2", second, ok)
	}

	mu.Lock()
	_, ok = q.Dequeue()
	mu.Unlock()
	if ok {
		t.Fatal("expected empty queue")
	}
}

func TestEnqueueBlocksUntilDequeue(t *testing.T) {
	var mu sync.Mutex
	q := New(&mu, 0)

	mu.Lock()
	if !q.Enqueue(table.ScanSpec{RowLimit: 1}, alwaysRunning) {
		t.Fatal("first enqueue should not block (queue starts empty)")
	}
	mu.Unlock()

	done := make(chan struct{})
	go func() {
		mu.Lock()
		q.Enqueue(table.ScanSpec{RowLimit: 2}, alwaysRunning)
		mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second enqueue should have blocked past limit 0")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	q.Dequeue()
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second enqueue never woke up after a dequeue")
	}
}

func TestEnqueueDiscardsWhenCancelled(t *testing.T) {
	var mu sync.Mutex
	q := New(&mu, 0)
	cancelled := true

	mu.Lock()
	q.Enqueue(table.ScanSpec{}, func() bool { return false })
	ok := q.Enqueue(table.ScanSpec{}, func() bool { return cancelled })
	mu.Unlock()

	if ok {
		t.Fatal("expected Enqueue to discard once cancelled() is true")
	}
}

func TestClearWakesWaiters(t *testing.T) {
	var mu sync.Mutex
	q := New(&mu, 0)

	mu.Lock()
	q.Enqueue(table.ScanSpec{}, alwaysRunning)
	mu.Unlock()

	done := make(chan bool, 1)
	go func() {
		mu.Lock()
		ok := q.Enqueue(table.ScanSpec{}, alwaysRunning)
		mu.Unlock()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	q.Clear()
	mu.Unlock()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Enqueue should return false once the queue is cleared/closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Clear did not wake the blocked Enqueue")
	}
}

package silt

import (
	"sync"
	"testing"
	"time"
)

func TestIntakeOrder(t *testing.T) {
	in := newIntake[int]()
	for i := 0; i < 100; i++ {
		if !in.push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if got := in.depth(); got != 100 {
		t.Fatalf("depth: got %d want 100", got)
	}
	for i := 0; i < 100; i++ {
		v, ok := in.pop()
		if !ok {
			t.Fatalf("pop %d: queue reported drained", i)
		}
		if v != i {
			t.Fatalf("pop %d: got %d", i, v)
		}
	}
}

func TestIntakePopBlocksUntilPush(t *testing.T) {
	in := newIntake[int]()

	got := make(chan int, 1)
	go func() {
		v, ok := in.pop()
		if ok {
			got <- v
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("pop returned %d from empty queue", v)
	case <-time.After(50 * time.Millisecond):
	}

	in.push(7)
	select {
	case v := <-got:
		if v != 7 {
			t.Fatalf("pop: got %d want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("pop not woken by push")
	}
}

func TestIntakeCloseDrains(t *testing.T) {
	in := newIntake[int]()
	in.push(1)
	in.push(2)
	in.close()

	if in.push(3) {
		t.Fatal("push accepted after close")
	}
	for want := 1; want <= 2; want++ {
		v, ok := in.pop()
		if !ok || v != want {
			t.Fatalf("drain pop: got (%d, %v) want (%d, true)", v, ok, want)
		}
	}
	if _, ok := in.pop(); ok {
		t.Fatal("pop reported item after drain")
	}
}

func TestIntakeCloseWakesParkedPop(t *testing.T) {
	in := newIntake[int]()

	done := make(chan bool, 1)
	go func() {
		_, ok := in.pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	in.close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("parked pop returned an item from empty closed queue")
		}
	case <-time.After(time.Second):
		t.Fatal("parked pop not woken by close")
	}
}

func TestIntakeConcurrentPushers(t *testing.T) {
	in := newIntake[int]()

	const pushers = 8
	const perPusher = 500
	var wg sync.WaitGroup
	for p := 0; p < pushers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPusher; i++ {
				in.push(i)
			}
		}()
	}
	wg.Wait()
	in.close()

	n := 0
	for {
		if _, ok := in.pop(); !ok {
			break
		}
		n++
	}
	if n != pushers*perPusher {
		t.Fatalf("drained %d items, want %d", n, pushers*perPusher)
	}
}

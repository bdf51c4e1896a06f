package pool

import "testing"

func TestPoolReuse(t *testing.T) {
	p := New[[4]float64](4)
	var hs []Handle
	for i := 0; i < 10; i++ {
		h := p.Allocate()
		if h == Nil {
			t.Fatal("got nil handle")
		}
		p.At(h)[0] = float64(i)
		hs = append(hs, h)
	}
	if p.Len() != 10 {
		t.Fatalf("want 10 live elements, got %d", p.Len())
	}
	if p.Cap() != 12 {
		t.Errorf("want capacity of 3 blocks (12), got %d", p.Cap())
	}
	for i, h := range hs {
		if got := p.At(h)[0]; got != float64(i) {
			t.Errorf("element %d corrupted: got %v", i, got)
		}
	}
	if err := p.Release(hs[3]); err != nil {
		t.Fatal(err)
	}
	if err := p.Release(hs[3]); err == nil {
		t.Error("expected error on double release")
	}
	h := p.Allocate()
	if h != hs[3] {
		t.Errorf("expected freed handle %d to be reused, got %d", hs[3], h)
	}
	if p.At(h)[0] != 0 {
		t.Error("reused element not zeroed")
	}
	if err := p.AssertAllReleased(); err == nil {
		t.Error("expected leak report with live elements")
	}
}

func TestPoolPointerStability(t *testing.T) {
	p := New[int](2)
	first := p.Allocate()
	ptr := p.At(first)
	*ptr = 42
	for i := 0; i < 100; i++ {
		p.Allocate()
	}
	if ptr != p.At(first) || *ptr != 42 {
		t.Fatal("element moved after block table growth")
	}
}

func TestPoolReset(t *testing.T) {
	p := New[int](8)
	var hs []Handle
	for i := 0; i < 20; i++ {
		hs = append(hs, p.Allocate())
	}
	capBefore := p.Cap()
	p.Reset()
	if p.Len() != 0 {
		t.Fatalf("want no live elements after reset, got %d", p.Len())
	}
	if err := p.AssertAllReleased(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if h := p.Allocate(); h != hs[i] {
			t.Fatalf("allocation %d after reset: want handle %d, got %d", i, hs[i], h)
		}
	}
	if p.Cap() != capBefore {
		t.Errorf("pool grew after reset: %d -> %d", capBefore, p.Cap())
	}
	if err := p.Release(Handle(1000)); err == nil {
		t.Error("expected error releasing nonexistent handle")
	}
}

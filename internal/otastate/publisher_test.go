package otastate

import (
	"sync"
	"testing"

	"otaagent/internal/otatypes"
)

func TestInitialState(t *testing.T) {
	p := New()
	status, err := p.Get()
	if status != otatypes.StatusInvalid || err != otatypes.ErrNone {
		t.Errorf("expected (Invalid,None), got (%v,%v)", status, err)
	}
	if p.GetAppliedVersion() != 0 {
		t.Errorf("expected applied version 0, got %d", p.GetAppliedVersion())
	}
}

func TestSetThenGet(t *testing.T) {
	p := New()
	p.Set(otatypes.StatusApplied, otatypes.ErrNone)
	status, err := p.Get()
	if status != otatypes.StatusApplied || err != otatypes.ErrNone {
		t.Errorf("unexpected state: (%v,%v)", status, err)
	}
}

func TestAppliedVersionIsMonotonic(t *testing.T) {
	p := New()
	p.SetAppliedVersion(5)
	p.SetAppliedVersion(3) // must not regress
	if got := p.GetAppliedVersion(); got != 5 {
		t.Errorf("expected applied version to stay at 5, got %d", got)
	}
	p.SetAppliedVersion(9)
	if got := p.GetAppliedVersion(); got != 9 {
		t.Errorf("expected applied version to advance to 9, got %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	p := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v uint32) {
			defer wg.Done()
			p.SetAppliedVersion(v)
		}(uint32(i))
		go func() {
			defer wg.Done()
			p.Get()
		}()
	}
	wg.Wait()
}

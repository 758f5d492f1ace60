package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]Module{"a": 1})
	s.Define("b", "two")

	m, err := s.LoadModule(context.Background(), "b")
	if err != nil {
		t.Fatalf("LoadModule() failed: %v", err)
	}
	if m != "two" {
		t.Errorf("expected module %q, got %v", "two", m)
	}
	if ids := s.IDs(); !slices.Equal(ids, []string{"a", "b"}) {
		t.Errorf("expected ids [a b], got %v", ids)
	}

	if _, err := s.LoadModule(context.Background(), "c"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic(map[string]Module{"a": 1}).LoadModule(ctx, "a")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChain(t *testing.T) {
	first := NewStatic(map[string]Module{"shared": "first"})
	second := NewStatic(map[string]Module{"shared": "second", "only": "second"})
	c := Chain{first, second}

	tests := []struct {
		id      string
		want    Module
		wantErr error
	}{
		{id: "shared", want: "first"},
		{id: "only", want: "second"},
		{id: "none", wantErr: ErrModuleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			m, err := c.LoadModule(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadModule(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if m != tt.want {
				t.Errorf("LoadModule(%q) = %v, want %v", tt.id, m, tt.want)
			}

			r := <-c.Submit(context.Background(), tt.id)
			if !errors.Is(r.Err, tt.wantErr) {
				t.Fatalf("Submit(%q) error = %v, want %v", tt.id, r.Err, tt.wantErr)
			}
			if r.Module != tt.want {
				t.Errorf("Submit(%q) = %v, want %v", tt.id, r.Module, tt.want)
			}
		})
	}
}

func TestChain_StopsOnHardError(t *testing.T) {
	boom := errors.New("boom")
	c := Chain{
		Func(func(context.Context, string) (Module, error) { return nil, boom }),
		NewStatic(map[string]Module{"x": 1}),
	}

	if _, err := c.LoadModule(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if r := <-c.Submit(context.Background(), "x"); !errors.Is(r.Err, boom) {
		t.Errorf("expected boom from Submit, got %v", r.Err)
	}
}

func TestChain_SubmitFallsThroughPendingLoader(t *testing.T) {
	slowMiss := Func(func(ctx context.Context, id string) (Module, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	})
	c := Chain{slowMiss, NewStatic(map[string]Module{"x": 1})}

	r := <-c.Submit(context.Background(), "x")
	if r.Err != nil {
		t.Fatalf("Submit() failed: %v", r.Err)
	}
	if r.Module != 1 {
		t.Errorf("expected module 1, got %v", r.Module)
	}
}

// callLog is a loader that records the order LoadModule is entered in.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) LoadModule(_ context.Context, id string) (Module, error) {
	l.mu.Lock()
	l.calls = append(l.calls, id)
	l.mu.Unlock()
	time.Sleep(time.Millisecond)
	return id, nil
}

func TestSubmit_KeepsCallOrder(t *testing.T) {
	ids := make([]string, 16)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
	}

	for run := 0; run < 20; run++ {
		l := &callLog{}
		pending := make([]<-chan Result, len(ids))
		for i, id := range ids {
			pending[i] = Submit(context.Background(), l, id)
		}
		for i, ch := range pending {
			if r := <-ch; r.Module != ids[i] {
				t.Fatalf("run %d: result %d = %v, want %s", run, i, r.Module, ids[i])
			}
		}
		if !slices.Equal(l.calls, ids) {
			t.Fatalf("run %d: calls entered as %v, want %v", run, l.calls, ids)
		}
	}
}

func TestSubmit_UsesSubmitter(t *testing.T) {
	s := NewStatic(map[string]Module{"a": 1})

	// Static answers before Submit returns.
	select {
	case r := <-Submit(context.Background(), s, "a"):
		if r.Module != 1 {
			t.Errorf("expected module 1, got %v", r.Module)
		}
	default:
		t.Fatal("expected Static.Submit to be resolved")
	}
}

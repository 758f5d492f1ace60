package di

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyOf(t *testing.T) {
	if KeyOf[io.Reader]() != KeyOf[io.Reader]() {
		t.Error("expected KeyOf to be stable")
	}
	if KeyOf[io.Reader]() == KeyOf[*strings.Reader]() {
		t.Error("expected interface and implementation keys to differ")
	}
	if name := KeyName(KeyOf[io.Reader]()); name != "io.Reader" {
		t.Errorf("expected io.Reader, got %s", name)
	}
	if name := KeyName("plain"); name != "plain" {
		t.Errorf("expected plain, got %s", name)
	}
}

func TestRegisterInstance_LastWins(t *testing.T) {
	c := New()
	c.RegisterInstance("k", 1)
	c.RegisterInstance("k", 2)

	v, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected 2, got %v", v)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 registration, got %d", c.Len())
	}
}

func TestRegisterSingleton_BuildsOnce(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.RegisterSingleton("svc", func(Container) (any, error) {
		calls.Add(1)
		return &strings.Builder{}, nil
	})

	var wg sync.WaitGroup
	results := make([]any, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get("svc")
		}(i)
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected the factory to run once, ran %d times", n)
	}
	for i, r := range results {
		if r != results[0] {
			t.Errorf("result %d differs from the first", i)
		}
	}
}

func TestSingleton_ResolvesDependencies(t *testing.T) {
	c := New()
	c.RegisterInstance("name", "world")
	c.RegisterSingleton("greeting", func(c Container) (any, error) {
		name, err := Get[string](c, "name")
		if err != nil {
			return nil, err
		}
		return "hello " + name, nil
	})

	got, err := Get[string](c, "greeting")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected hello world, got %q", got)
	}
}

func TestSingleton_SharedDependencyIsNotACycle(t *testing.T) {
	c := New()
	c.RegisterSingleton("base", func(Container) (any, error) { return "base", nil })
	for _, k := range []string{"left", "right"} {
		c.RegisterSingleton(k, func(c Container) (any, error) { return c.Get("base") })
	}
	c.RegisterSingleton("top", func(c Container) (any, error) {
		if _, err := c.Get("left"); err != nil {
			return nil, err
		}
		return c.Get("right")
	})

	if _, err := c.Get("top"); err != nil {
		t.Errorf("Get() failed on a diamond: %v", err)
	}
}

// getWithin fails the test if Get does not return promptly.
func getWithin(t *testing.T, c Container, key Key) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(key)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("Get(%v) did not return", key)
		return nil
	}
}

func TestSingleton_SelfReference(t *testing.T) {
	c := New()
	c.RegisterSingleton("self", func(c Container) (any, error) {
		return c.Get("self")
	})

	err := getWithin(t, c, "self")
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if !strings.Contains(err.Error(), "self -> self") {
		t.Errorf("expected the cycle in the message, got %q", err.Error())
	}
}

func TestSingleton_MutualReference(t *testing.T) {
	c := New()
	c.RegisterSingleton("a", func(c Container) (any, error) { return c.Get("b") })
	c.RegisterSingleton("b", func(c Container) (any, error) { return c.Get("a") })

	err := getWithin(t, c, "a")
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("expected the cycle in the message, got %q", err.Error())
	}

	// the failure is cached for both keys
	if err := getWithin(t, c, "b"); !errors.Is(err, ErrCircularDependency) {
		t.Errorf("expected b to fail too, got %v", err)
	}
}

func TestSingleton_CycleThroughParent(t *testing.T) {
	parent := New()
	child := New(WithParent(parent))
	parent.RegisterSingleton("p", func(c Container) (any, error) { return c.Get("p") })

	if err := getWithin(t, child, "p"); !errors.Is(err, ErrCircularDependency) {
		t.Errorf("expected ErrCircularDependency, got %v", err)
	}
}

func TestSingleton_ErrorIsCached(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	var calls int
	c.RegisterSingleton("bad", func(Container) (any, error) {
		calls++
		return nil, boom
	})

	_, err := c.Get("bad")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var re *ResolveError
	if !errors.As(err, &re) || re.Key != "bad" {
		t.Errorf("expected a ResolveError for bad, got %v", err)
	}

	if _, err := c.Get("bad"); !errors.Is(err, boom) {
		t.Errorf("expected cached boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the factory to run once, ran %d times", calls)
	}
}

func TestGet_Missing(t *testing.T) {
	c := New()
	if _, err := c.Get("missing"); !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}
	if c.HasHandler("missing") {
		t.Error("did not expect a handler")
	}
}

func TestGet_WrongType(t *testing.T) {
	c := New()
	c.RegisterInstance("n", 42)
	if _, err := Get[string](c, "n"); err == nil || !strings.Contains(err.Error(), "got int") {
		t.Errorf("expected a type error, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustGet to panic")
		}
	}()
	MustGet[string](c, "n")
}

func TestParent(t *testing.T) {
	parent := New()
	parent.RegisterInstance("shared", "p")
	child := New(WithParent(parent))
	child.RegisterInstance("own", "c")

	if !child.HasHandler("shared") {
		t.Error("expected the child to see the parent's handler")
	}
	v, err := child.Get("shared")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if v != "p" {
		t.Errorf("expected p, got %v", v)
	}
	if parent.HasHandler("own") {
		t.Error("did not expect the parent to see the child's handler")
	}
}

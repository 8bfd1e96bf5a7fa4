package testkit

import (
	"os"
	"testing"
	"time"
)

var delay = time.Second

func TestSwap(t *testing.T) {
	t.Run("inner", func(t *testing.T) {
		Swap(t, &delay, 0)
		if delay != 0 {
			t.Fatalf("delay = %v", delay)
		}
	})
	if delay != time.Second {
		t.Fatalf("not restored: %v", delay)
	}

	open := func(string) (int, error) { return 1, nil }
	t.Run("func", func(t *testing.T) {
		Swap(t, &open, func(string) (int, error) { return 2, nil })
		if n, _ := open("x"); n != 2 {
			t.Fatalf("n = %d", n)
		}
	})
	if n, _ := open("x"); n != 1 {
		t.Fatalf("func not restored: %d", n)
	}
}

func TestSerial(t *testing.T) {
	Serial(t)
	if seamMu.TryLock() {
		seamMu.Unlock()
		t.Fatal("lock not held")
	}
}

func TestMustPanic(t *testing.T) {
	t.Parallel()
	if v := MustPanic(t, func() { panic("boom") }); v != "boom" {
		t.Fatalf("value = %v", v)
	}
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	b, err := os.ReadFile(WriteFile(t, "in.jsonl", "{}\n"))
	if err != nil || string(b) != "{}\n" {
		t.Fatalf("%q %v", b, err)
	}
}

func TestIsClose(t *testing.T) {
	t.Parallel()
	cases := []struct {
		got, want, tol float64
		ok             bool
	}{
		{1.0001, 1, 1e-3, true},
		{1.01, 1, 1e-3, false},
		{0.0005, 0, 1e-3, true},
		{-2, -2.001, 1e-3, true},
	}
	for _, c := range cases {
		if IsClose(c.got, c.want, c.tol) != c.ok {
			t.Fatalf("IsClose(%v, %v, %v) want %v", c.got, c.want, c.tol, c.ok)
		}
	}
}

package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create(TypeInstance, "instance")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok || val != "instance" {
		t.Fatalf("Get = %v, %v", val, ok)
	}

	typeID, ok := b.TypeID(handle)
	if !ok || typeID != TypeInstance {
		t.Fatalf("TypeID = %d, %v", typeID, ok)
	}

	val, ok = b.Drop(handle)
	if !ok || val != "instance" {
		t.Fatalf("Drop = %v, %v", val, ok)
	}

	if _, ok := b.Get(handle); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
	if _, ok := b.Drop(handle); ok {
		t.Fatal("Expected second Drop to fail")
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(TypeState, "a")
	h2, _ := b.Create(TypeState, "b")
	if h1 == h2 {
		t.Fatal("Expected distinct handles")
	}

	b.Drop(h1)
	h3, _ := b.Create(TypeState, "c")
	if h3 != h1 {
		t.Fatalf("Expected freed handle %d to be reused, got %d", h1, h3)
	}

	val, _ := b.Get(h3)
	if val != "c" {
		t.Fatalf("Expected 'c', got %v", val)
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	d := &dropCounter{}
	b.Create(TypeInstance, d)
	b.Create(TypeInstance, "plain")

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop once on Close, got %d", d.count)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatal("second Close dropped again")
	}

	if _, err := b.Create(TypeInstance, "late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Create after Close = %v, want ErrClosed", err)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, err := b.Create(TypeInstance, i*1000+j)
				if err != nil {
					t.Error(err)
					return
				}
				if v, ok := b.Get(h); !ok || v != i*1000+j {
					t.Errorf("Get(%d) = %v, %v", h, v, ok)
				}
				b.Drop(h)
			}
		}(i)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected empty backend, Len() = %d", b.Len())
	}
}

func TestLocalBackend_LenEach(t *testing.T) {
	b := NewLocalBackend()
	h1, _ := b.Create(TypeInstance, 1)
	b.Create(TypeState, 2)
	b.Create(TypeState, 3)
	b.Drop(h1)

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}

	sum := 0
	b.Each(func(h Handle, typeID uint32, v any) bool {
		if typeID != TypeState {
			t.Errorf("unexpected type %d", typeID)
		}
		sum += v.(int)
		return true
	})
	if sum != 5 {
		t.Fatalf("sum = %d, want 5", sum)
	}

	// Each works on a snapshot, so dropping inside the callback is safe.
	b.Each(func(h Handle, _ uint32, _ any) bool {
		b.Drop(h)
		return true
	})
	if b.Len() != 0 {
		t.Fatalf("Len() = %d after dropping in Each", b.Len())
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	for _, h := range []Handle{0, 1, 999} {
		if _, ok := b.Get(h); ok {
			t.Errorf("Get(%d) succeeded on empty backend", h)
		}
		if _, ok := b.TypeID(h); ok {
			t.Errorf("TypeID(%d) succeeded on empty backend", h)
		}
		if _, ok := b.Drop(h); ok {
			t.Errorf("Drop(%d) succeeded on empty backend", h)
		}
	}
}

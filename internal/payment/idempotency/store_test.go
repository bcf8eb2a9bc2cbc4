package idempotency

import (
	"context"
	"testing"
)

func TestMemoryStoreDuplicateDetection(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	dup, err := s.Begin(ctx, "key-1")
	if err != nil || dup {
		t.Fatalf("first Begin = (%v, %v), want fresh", dup, err)
	}

	dup, err = s.Begin(ctx, "key-1")
	if err != nil || !dup {
		t.Fatalf("second Begin = (%v, %v), want duplicate", dup, err)
	}

	// Other keys are independent
	dup, _ = s.Begin(ctx, "key-2")
	if dup {
		t.Error("unrelated key reported as duplicate")
	}
}

func TestMemoryStoreCompleteKeepsKeyBurned(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Begin(ctx, "key-1")
	if err := s.Complete(ctx, "key-1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	dup, _ := s.Begin(ctx, "key-1")
	if !dup {
		t.Error("completed key must stay duplicate")
	}
}

func TestMemoryStoreClearFreesKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Begin(ctx, "key-1")
	if err := s.Clear(ctx, "key-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	dup, _ := s.Begin(ctx, "key-1")
	if dup {
		t.Error("cleared key must be reusable")
	}
}

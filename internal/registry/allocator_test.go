package registry

import (
	"context"
	"testing"

	"warren/internal/datastore"
	"warren/internal/domain"
	"warren/internal/testutil"
)

func TestAllocator_MonotonicPerKind(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestAllocator_MonotonicPerKind")
	defer cleanup()

	alloc, err := NewAllocator(datastore.New(db))
	if err != nil {
		t.Fatalf("Failed to build allocator: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := alloc.Next(KindNetwork)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected network id %d, got %d", want, got)
		}
	}

	// Kinds count independently.
	got, err := alloc.Next(KindMachine)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != 1 {
		t.Errorf("Expected machine sequence to start at 1, got %d", got)
	}
}

func TestAllocator_NoReuseAfterRestart(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestAllocator_NoReuseAfterRestart")
	defer cleanup()
	ctx := context.Background()

	reg, err := New(datastore.New(db))
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	if _, err := reg.Networks.Create(ctx, domain.Network{Name: "one", Bridge: "br0", Subnet: "10.0.1.0/24"}); err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	second, err := reg.Networks.Create(ctx, domain.Network{Name: "two", Bridge: "br0", Subnet: "10.0.2.0/24"})
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	if err := reg.Networks.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Failed to delete network: %v", err)
	}

	// A fresh registry over the same database must not hand out the
	// deleted id again.
	restarted, err := New(datastore.New(db))
	if err != nil {
		t.Fatalf("Failed to rebuild registry: %v", err)
	}
	third, err := restarted.Networks.Create(ctx, domain.Network{Name: "three", Bridge: "br0", Subnet: "10.0.3.0/24"})
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	if third.ID != second.ID+1 {
		t.Errorf("Expected id %d after restart, got %d", second.ID+1, third.ID)
	}
}

func TestAllocator_ObserveRaisesHighWater(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestAllocator_ObserveRaisesHighWater")
	defer cleanup()

	alloc, err := NewAllocator(datastore.New(db))
	if err != nil {
		t.Fatalf("Failed to build allocator: %v", err)
	}

	alloc.Observe(KindSSHKey, 7)
	alloc.Observe(KindSSHKey, 3) // lower ids never pull the mark back

	got, err := alloc.Next(KindSSHKey)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != 8 {
		t.Errorf("Expected id 8 after observing 7, got %d", got)
	}
}

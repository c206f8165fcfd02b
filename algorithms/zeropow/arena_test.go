package zeropow

import (
	"testing"
	"unsafe"
)

func TestNewArenaAlignment(t *testing.T) {
	a, err := NewArena(Params{})
	if err != nil {
		t.Fatal(err)
	}
	regions := [][]byte{a.initialHashes, a.stageBuffers[0], a.stageBuffers[1]}
	for i, r := range regions {
		if len(r) == 0 {
			t.Fatalf("region %d is empty", i)
		}
		addr := uintptr(unsafe.Pointer(&r[0]))
		if addr%alignment != 0 {
			t.Errorf("region %d starts at %#x, not %d-byte aligned", i, addr, alignment)
		}
	}
}

func TestArenaRejectsAbsurdIndexBits(t *testing.T) {
	_, err := NewArena(Params{N: 96, K: 3, IndexBits: maxIndexBits + 1})
	if err == nil {
		t.Fatal("expected ErrArenaAllocation for an oversized IndexBits")
	}
}

func TestArenaResetClearsButKeepsCapacity(t *testing.T) {
	a, err := NewArena(Params{N: 96, K: 3, IndexBits: 8})
	if err != nil {
		t.Fatal(err)
	}
	a.initialCount = 10
	a.stageCount[0] = 5
	a.collisions[0] = append(a.collisions[0], CollisionPair{Left: 1, Right: 2})
	a.buckets[42] = []uint32{1, 2, 3}

	initialCap := cap(a.collisions[0])
	a.reset()

	if a.initialCount != 0 || a.stageCount[0] != 0 || a.stageCount[1] != 0 {
		t.Fatal("reset did not clear counts")
	}
	if len(a.collisions[0]) != 0 {
		t.Fatal("reset did not clear collisions")
	}
	if cap(a.collisions[0]) != initialCap {
		t.Fatal("reset should not reallocate the collisions slice")
	}
	if len(a.buckets) != 0 {
		t.Fatal("reset did not clear buckets")
	}
}

func TestArenaHashRoundTrip(t *testing.T) {
	a, err := NewArena(Params{N: 96, K: 3, IndexBits: 6})
	if err != nil {
		t.Fatal(err)
	}
	var digest [digestSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	a.setHash(3, digest)
	if got := a.hashAt(3); string(got) != string(digest[:]) {
		t.Fatalf("hashAt(3) = %x, want %x", got, digest)
	}
}

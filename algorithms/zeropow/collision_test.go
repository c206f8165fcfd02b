package zeropow

import "testing"

func alwaysContinue() bool { return false }

// smallParams gives a one-merge-round pipeline (K=1, plus a final
// exact-zero filter window) with a byte-aligned 24-bit collision
// window, small enough to hand-construct fixtures for.
func smallParams(t *testing.T) Params {
	t.Helper()
	p, err := Params{N: 48, K: 1, IndexBits: 8}.resolved()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractKey(t *testing.T) {
	value := []byte{0x01, 0x02, 0x03, 0xaa, 0xbb, 0xcc}
	if got := extractKey(value, 0, 3); got != 0x010203 {
		t.Errorf("extractKey(stage=0) = %#x, want 0x010203", got)
	}
	if got := extractKey(value, 1, 3); got != 0xaabbcc {
		t.Errorf("extractKey(stage=1) = %#x, want 0xaabbcc", got)
	}
}

func TestDisjointUnion(t *testing.T) {
	merged, ok := disjointUnion([]uint32{1, 3, 5}, []uint32{2, 4})
	if !ok {
		t.Fatal("expected disjoint sets to merge")
	}
	want := []uint32{1, 2, 3, 4, 5}
	if len(merged) != len(want) {
		t.Fatalf("merged = %v, want %v", merged, want)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("merged = %v, want %v", merged, want)
		}
	}

	if _, ok := disjointUnion([]uint32{1, 2}, []uint32{2, 3}); ok {
		t.Fatal("expected overlapping sets to be rejected")
	}
}

func TestLeadingZeroBits(t *testing.T) {
	cases := []struct {
		v     []byte
		limit int
		want  int
	}{
		{[]byte{0x00, 0x00, 0xff}, 24, 16},
		{[]byte{0x00, 0x00, 0x00}, 24, 24},
		{[]byte{0x80}, 24, 0},
		{[]byte{0x00, 0x01}, 24, 15},
	}
	for _, c := range cases {
		if got := leadingZeroBits(c.v, c.limit); got != c.want {
			t.Errorf("leadingZeroBits(%x, %d) = %d, want %d", c.v, c.limit, got, c.want)
		}
	}
}

func TestRunStageAcceptsSharedBucketPair(t *testing.T) {
	p := smallParams(t)
	a, err := NewArena(p)
	if err != nil {
		t.Fatal(err)
	}

	rows := [][digestSize]byte{}
	row := func(fill byte, sharedPrefix [3]byte) [digestSize]byte {
		var d [digestSize]byte
		for i := range d {
			d[i] = fill
		}
		copy(d[:3], sharedPrefix[:])
		return d
	}
	shared := [3]byte{0x11, 0x22, 0x33}
	rows = append(rows, row(0x01, shared))       // index 0: in the shared bucket
	rows = append(rows, row(0x02, shared))       // index 1: in the shared bucket
	rows = append(rows, row(0x03, [3]byte{9, 9, 9})) // index 2: distinct bucket

	for i, r := range rows {
		a.setHash(i, r)
	}

	DebugAssertions = true
	defer func() { DebugAssertions = false }()

	result := runStage(a, 0, a.initialHashes, len(rows), nil, 0, alwaysContinue, false)
	if result.cancelled {
		t.Fatal("unexpected cancellation")
	}
	if len(a.collisions[0]) != 1 {
		t.Fatalf("collisions[0] has %d entries, want 1", len(a.collisions[0]))
	}
	pair := a.collisions[0][0]
	if pair.Left != 0 || pair.Right != 1 {
		t.Fatalf("pair = %+v, want Left=0 Right=1", pair)
	}
	for i := 0; i < 3; i++ {
		if pair.XORResult[i] != 0 {
			t.Fatalf("XORResult[%d] = %#x, want 0 (shared prefix)", i, pair.XORResult[i])
		}
	}
	if len(result.ancestors) != 1 || result.ancestors[0][0] != 0 || result.ancestors[0][1] != 1 {
		t.Fatalf("ancestors = %v, want [[0 1]]", result.ancestors)
	}
}

func TestRunStageRejectsOverlappingAncestors(t *testing.T) {
	p, err := Params{N: 72, K: 2, IndexBits: 8}.resolved()
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewArena(p)
	if err != nil {
		t.Fatal(err)
	}
	// Two stage-1 candidate rows both descend from raw index 0: any
	// pair formed between them must be rejected regardless of their
	// bucket key.
	shared := [3]byte{0xaa, 0xbb, 0xcc}
	var rowA, rowB [digestSize]byte
	copy(rowA[:3], shared[:])
	copy(rowB[:3], shared[:])
	rowA[10], rowB[10] = 1, 2
	a.setStageRow(0, 0, rowA)
	a.setStageRow(0, 1, rowB)

	prevAncestors := [][]uint32{{0, 5}, {0, 6}} // both contain raw index 0
	result := runStage(a, 1, a.stageBuffers[0], 2, prevAncestors, 1, alwaysContinue, true)
	if len(a.collisions[1]) != 0 {
		t.Fatalf("collisions[1] has %d entries, want 0 (ancestors overlap on index 0)", len(a.collisions[1]))
	}
	_ = result
}

func TestRunStagePollsCancellation(t *testing.T) {
	p := smallParams(t)
	a, err := NewArena(p)
	if err != nil {
		t.Fatal(err)
	}
	// Force many entries into one bucket so the pair-comparison loop
	// crosses pairCancelInterval comparisons.
	n := 200
	for i := 0; i < n; i++ {
		var d [digestSize]byte
		d[0], d[1], d[2] = 1, 2, 3
		d[10] = byte(i)
		a.setHash(i, d)
	}
	calls := 0
	cancel := func() bool {
		calls++
		return true
	}
	result := runStage(a, 0, a.initialHashes, n, nil, 0, cancel, false)
	if !result.cancelled {
		t.Fatal("expected cancellation to stop the bucket scan")
	}
}

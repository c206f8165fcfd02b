package zeropow

import (
	"bytes"
	"testing"
)

func TestHasherMatchesSumReference(t *testing.T) {
	params := Params{}
	headers := [][]byte{
		[]byte("abc"),
		[]byte(""),
		bytes.Repeat([]byte{0x01}, 100),
		bytes.Repeat([]byte{0x02}, 128),
		bytes.Repeat([]byte{0x03}, 250),
		bytes.Repeat([]byte{0x04}, blockSize-3), // tail(125)+index(4) overflows one block
		bytes.Repeat([]byte{0x05}, blockSize-1), // tail(127)+index(4) overflows one block
	}
	nonces := [][]byte{
		[]byte(""),
		[]byte("nonce"),
		bytes.Repeat([]byte{0xff}, 20),
	}

	for _, header := range headers {
		for _, nonce := range nonces {
			h, err := NewHasher(params, header, nonce)
			if err != nil {
				t.Fatalf("NewHasher(header len=%d, nonce len=%d): %v", len(header), len(nonce), err)
			}
			for _, i := range []uint32{0, 1, 2, 1000, 0xffffffff} {
				want, err := Sum(params, header, nonce, i)
				if err != nil {
					t.Fatalf("Sum: %v", err)
				}
				got := h.Hash(i)
				if got != want {
					t.Errorf("header len=%d nonce len=%d i=%d: Hash=%x want=%x", len(header), len(nonce), i, got, want)
				}
			}
		}
	}
}

func TestHasherIndependentAcrossCalls(t *testing.T) {
	h, err := NewHasher(Params{}, []byte("abc"), nil)
	if err != nil {
		t.Fatal(err)
	}
	a := h.Hash(1)
	b := h.Hash(2)
	if a == b {
		t.Fatal("Hash(1) == Hash(2), expected distinct digests")
	}
	// calling Hash(1) again must reproduce the same digest: cloning the
	// mid-state must not mutate it.
	again := h.Hash(1)
	if a != again {
		t.Fatal("Hash(1) is not idempotent across calls")
	}
}

// TestHasherHandlesTailAcrossBlockBoundary is a direct regression test
// for a tail whose length (125-127 bytes) leaves no room for the 4-byte
// index in a single block: Hash must still agree with Sum by absorbing
// the overflow as an intermediate compress, not reject the input.
func TestHasherHandlesTailAcrossBlockBoundary(t *testing.T) {
	header := bytes.Repeat([]byte{0x09}, blockSize-3) // 125-byte tail
	h, err := NewHasher(Params{}, header, nil)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	for _, i := range []uint32{0, 1, 42, 0xffffffff} {
		want, err := Sum(Params{}, header, nil, i)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
		if got := h.Hash(i); got != want {
			t.Errorf("i=%d: Hash=%x want=%x", i, got, want)
		}
	}
}

func TestHasherRejectsOversizedInput(t *testing.T) {
	huge := make([]byte, maxHeaderNonceLen+1)
	_, err := NewHasher(Params{}, huge, nil)
	if err == nil {
		t.Fatal("expected ErrInputTooLarge for a header far beyond any real use")
	}
}

func TestSumIndexEncodingScenario(t *testing.T) {
	// header="abc", nonce="", i=1 hashes the 7-byte message
	// 61 62 63 01 00 00 00 under the ZERO_PoW(192,7) personalization.
	want := sumBlake2b(equihashPersonal(192, 7), []byte{0x61, 0x62, 0x63, 0x01, 0x00, 0x00, 0x00})
	got, err := Sum(Params{}, []byte("abc"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Sum = %x, want %x", got, want)
	}
}

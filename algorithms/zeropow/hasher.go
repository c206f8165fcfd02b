package zeropow

import (
	"encoding/binary"
	"fmt"
)

// Hasher produces the deterministic sequence of 256-bit seed digests
// H(i) for i in [0, InitialHashCount). It amortizes the cost of
// absorbing (header, nonce) across every i by keeping a mid-state of
// every full 128-byte block already seen, and replaying only the
// trailing partial block plus the 4-byte index for each hash. This must
// stay observably identical to sumBlake2b, the scalar reference for
// every header/nonce length, not just byte-aligned ones.
type Hasher struct {
	mid  blakeState
	tail [blockSize]byte
	n    int // bytes of header‖nonce held in tail, always < blockSize
}

// maxHeaderNonceLen bounds header+nonce length against genuinely
// pathological misuse. Blake2b itself has no such limit (~2^64 bytes)
// and Hash below can finalize any tail length correctly, so this exists
// only to reject absurd inputs before they drive an unbounded
// allocation in NewHasher, not to protect the per-index finalize.
const maxHeaderNonceLen = 1 << 20

// NewHasher binds a Hasher to a fixed (header, nonce, N, K); it can then
// produce Hash(i) for any i cheaply. Returns ErrInputTooLarge only for
// header‖nonce lengths far beyond any real use.
func NewHasher(params Params, header, nonce []byte) (*Hasher, error) {
	p, err := params.resolved()
	if err != nil {
		return nil, err
	}
	if len(header)+len(nonce) > maxHeaderNonceLen {
		return nil, wrapInput(fmt.Sprintf("header+nonce length %d exceeds sane bound %d", len(header)+len(nonce), maxHeaderNonceLen))
	}
	personal := equihashPersonal(p.N, p.K)
	st := newBlakeState(personal)

	h := &Hasher{mid: st}
	data := append(append([]byte{}, header...), nonce...)
	off := 0
	for len(data)-off >= blockSize {
		var block [blockSize]byte
		copy(block[:], data[off:off+blockSize])
		h.mid.compress(&block, blockSize, false)
		off += blockSize
	}
	h.n = copy(h.tail[:], data[off:])
	return h, nil
}

// Hash returns the 256-bit digest for seed index i. It never mutates
// shared state: each call clones the mid-state before finalizing. When
// the stored tail plus the 4-byte index overflow a single block (tail
// length 125-127), it absorbs the tail's share of that block as an
// intermediate compress and finalizes on what's left, exactly as
// sumBlake2b would if it processed the same bytes in one pass.
func (h *Hasher) Hash(i uint32) [digestSize]byte {
	st := h.mid
	if h.n+4 <= blockSize {
		var final [blockSize]byte
		copy(final[:], h.tail[:h.n])
		binary.LittleEndian.PutUint32(final[h.n:h.n+4], i)
		st.compress(&final, h.n+4, true)
		return st.digest()
	}

	var combined [blockSize + 4]byte
	copy(combined[:], h.tail[:h.n])
	binary.LittleEndian.PutUint32(combined[h.n:h.n+4], i)

	var first [blockSize]byte
	copy(first[:], combined[:blockSize])
	st.compress(&first, blockSize, false)

	var final [blockSize]byte
	n := copy(final[:], combined[blockSize:h.n+4])
	st.compress(&final, n, true)
	return st.digest()
}

// Sum is the unoptimized, single-call reference used by tests and by
// any caller that does not need to amortize across many indices; it
// must always agree with Hash.
func Sum(params Params, header, nonce []byte, i uint32) ([digestSize]byte, error) {
	p, err := params.resolved()
	if err != nil {
		return [digestSize]byte{}, err
	}
	personal := equihashPersonal(p.N, p.K)
	data := make([]byte, 0, len(header)+len(nonce)+4)
	data = append(data, header...)
	data = append(data, nonce...)
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], i)
	data = append(data, idx[:]...)
	return sumBlake2b(personal, data), nil
}

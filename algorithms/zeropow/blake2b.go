package zeropow

import "encoding/binary"

// This file generalizes the hand-rolled, personalized Blake2b used by
// Zcash-style Equihash miners (a fixed 128-byte single-block hasher)
// into one that streams arbitrary-length input and exposes a reusable
// mid-state, so absorbing (header, nonce) once and finalizing per index
// stays cheap.
//
// golang.org/x/crypto/blake2b cannot serve this role: its public API
// (New512/New/Sum512) has no way to set the personalization field, only
// a key. Personalization is exactly what binds a digest to (N, K), so
// this stays hand-rolled, grounded in the same approach Zcash-style
// miners use for their own (N=200, K=9) personalization, rather than
// reaching for a generic hash.Hash that cannot express the wire format.
// See blake2b_test.go for a cross-check against golang.org/x/crypto/blake2b
// on the personalization-free path, which the two implementations must
// agree on.

const blockSize = 128

var blake2bIV = [8]uint64{
	0x6a09e667f3bcc908, 0xbb67ae8584caa73b,
	0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
	0x510e527fade682d1, 0x9b05688c2b3e6c1f,
	0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
}

var blake2bSigma = [12][16]byte{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
	{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
	{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
	{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
	{12, 5, 1, 15, 14, 13, 4, 10, 0, 7, 6, 3, 9, 2, 8, 11},
	{13, 11, 7, 14, 12, 1, 3, 9, 5, 0, 15, 4, 8, 6, 2, 10},
	{6, 15, 14, 9, 11, 3, 0, 8, 12, 2, 13, 7, 1, 4, 10, 5},
	{10, 2, 8, 4, 7, 6, 1, 5, 15, 11, 9, 14, 3, 12, 13, 0},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
}

// blakeState is the 8-word chain value plus running byte counter of an
// in-progress Blake2b-256 computation. Messages handled by this package
// are always well under 2^64 bytes, so a single 64-bit counter word
// suffices (t[1] of the RFC 7693 counter stays zero throughout).
type blakeState struct {
	h [8]uint64
	t uint64
}

// newBlakeState builds the initial chain value for a 32-byte digest
// bound to the given 16-byte personalization field, with fanout=1,
// depth=1, leaf_length=0, node_offset=0, node_depth=0, inner_length=0,
// key_length=0.
func newBlakeState(personal [16]byte) blakeState {
	var st blakeState
	st.h[0] = blake2bIV[0] ^ (0x01010000 | uint64(digestSize))
	for i := 1; i <= 5; i++ {
		st.h[i] = blake2bIV[i]
	}
	st.h[6] = blake2bIV[6] ^ binary.LittleEndian.Uint64(personal[0:8])
	st.h[7] = blake2bIV[7] ^ binary.LittleEndian.Uint64(personal[8:16])
	return st
}

// equihashPersonal builds the 16-byte personalization field
// "ZERO_PoW" ‖ LE32(n) ‖ LE32(k).
func equihashPersonal(n, k int) [16]byte {
	var personal [16]byte
	copy(personal[:8], personalizationTag)
	binary.LittleEndian.PutUint32(personal[8:12], uint32(n))
	binary.LittleEndian.PutUint32(personal[12:16], uint32(k))
	return personal
}

func rotr64(a uint64, bits uint) uint64 {
	return (a >> bits) | (a << (64 - bits))
}

func blakeMix(va, vb, vc, vd *uint64, x, y uint64) {
	*va = *va + *vb + x
	*vd = rotr64(*vd^*va, 32)
	*vc = *vc + *vd
	*vb = rotr64(*vb^*vc, 24)
	*va = *va + *vb + y
	*vd = rotr64(*vd^*va, 16)
	*vc = *vc + *vd
	*vb = rotr64(*vb^*vc, 63)
}

// compress absorbs one 128-byte block. actualLen is the number of real
// (unpadded) message bytes the block carries, equal to blockSize for
// every interior block, and possibly smaller for the final block, whose
// trailing bytes must already be zeroed by the caller.
func (st *blakeState) compress(block *[blockSize]byte, actualLen int, final bool) {
	var v [16]uint64
	copy(v[:8], st.h[:])
	copy(v[8:], blake2bIV[:])

	st.t += uint64(actualLen)
	v[12] ^= st.t
	if final {
		v[14] ^= ^uint64(0)
	}

	var m [16]uint64
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint64(block[i*8:])
	}

	for round := 0; round < 12; round++ {
		s := blake2bSigma[round]
		blakeMix(&v[0], &v[4], &v[8], &v[12], m[s[0]], m[s[1]])
		blakeMix(&v[1], &v[5], &v[9], &v[13], m[s[2]], m[s[3]])
		blakeMix(&v[2], &v[6], &v[10], &v[14], m[s[4]], m[s[5]])
		blakeMix(&v[3], &v[7], &v[11], &v[15], m[s[6]], m[s[7]])
		blakeMix(&v[0], &v[5], &v[10], &v[15], m[s[8]], m[s[9]])
		blakeMix(&v[1], &v[6], &v[11], &v[12], m[s[10]], m[s[11]])
		blakeMix(&v[2], &v[7], &v[8], &v[13], m[s[12]], m[s[13]])
		blakeMix(&v[3], &v[4], &v[9], &v[14], m[s[14]], m[s[15]])
	}

	for i := 0; i < 8; i++ {
		st.h[i] ^= v[i] ^ v[i+8]
	}
}

// digest writes the 32-byte output of a finalized state.
func (st *blakeState) digest() (out [digestSize]byte) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], st.h[i])
	}
	return
}

// sumBlake2b is the scalar reference: one call, arbitrary-length input,
// no shared mid-state. Every other hashing path in this package must be
// byte-identical to it.
func sumBlake2b(personal [16]byte, data []byte) [digestSize]byte {
	st := newBlakeState(personal)
	off := 0
	for len(data)-off > blockSize {
		var block [blockSize]byte
		copy(block[:], data[off:off+blockSize])
		st.compress(&block, blockSize, false)
		off += blockSize
	}
	var final [blockSize]byte
	n := copy(final[:], data[off:])
	st.compress(&final, n, true)
	return st.digest()
}

package sha3

import "math/bits"

const rounds = 24

// roundConstants are the iota-step constants for the 24 rounds of
// Keccak-f[1600], per FIPS 202.
var roundConstants = [rounds]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

// keccakF1600 applies the Keccak-f[1600] permutation to the state in place.
// The state is 25 little-endian 64-bit lanes, lane index = x + 5*y.
//
// The rho rotation offsets and the pi lane moves are fused into a single
// chain of 25 moves that "follows" the pi permutation, so each lane is read
// exactly once before it is overwritten. The offsets are the standard fixed
// table; they cannot be derived from a formula and must match FIPS 202
// exactly. The known-answer tests pin them down.
func keccakF1600(a *[25]uint64) {
	var c, d [5]uint64

	c[0] = a[0] ^ a[5] ^ a[10] ^ a[15] ^ a[20]
	c[1] = a[1] ^ a[6] ^ a[11] ^ a[16] ^ a[21]
	c[2] = a[2] ^ a[7] ^ a[12] ^ a[17] ^ a[22]
	c[3] = a[3] ^ a[8] ^ a[13] ^ a[18] ^ a[23]
	c[4] = a[4] ^ a[9] ^ a[14] ^ a[19] ^ a[24]

	for i := 0; i < rounds; i++ {
		// Theta.
		d[0] = c[4] ^ bits.RotateLeft64(c[1], 1)
		d[1] = c[0] ^ bits.RotateLeft64(c[2], 1)
		d[2] = c[1] ^ bits.RotateLeft64(c[3], 1)
		d[3] = c[2] ^ bits.RotateLeft64(c[4], 1)
		d[4] = c[3] ^ bits.RotateLeft64(c[0], 1)

		// Rho and pi, applied as one in-place move sequence.
		a[0] ^= d[0]
		t := bits.RotateLeft64(a[1]^d[1], 1)
		a[1] = bits.RotateLeft64(a[6]^d[1], 44)
		a[6] = bits.RotateLeft64(a[9]^d[4], 20)
		a[9] = bits.RotateLeft64(a[22]^d[2], 61)
		a[22] = bits.RotateLeft64(a[14]^d[4], 39)
		a[14] = bits.RotateLeft64(a[20]^d[0], 18)
		a[20] = bits.RotateLeft64(a[2]^d[2], 62)
		a[2] = bits.RotateLeft64(a[12]^d[2], 43)
		a[12] = bits.RotateLeft64(a[13]^d[3], 25)
		a[13] = bits.RotateLeft64(a[19]^d[4], 8)
		a[19] = bits.RotateLeft64(a[23]^d[3], 56)
		a[23] = bits.RotateLeft64(a[15]^d[0], 41)
		a[15] = bits.RotateLeft64(a[4]^d[4], 27)
		a[4] = bits.RotateLeft64(a[24]^d[4], 14)
		a[24] = bits.RotateLeft64(a[21]^d[1], 2)
		a[21] = bits.RotateLeft64(a[8]^d[3], 55)
		a[8] = bits.RotateLeft64(a[16]^d[1], 45)
		a[16] = bits.RotateLeft64(a[5]^d[0], 36)
		a[5] = bits.RotateLeft64(a[3]^d[3], 28)
		a[3] = bits.RotateLeft64(a[18]^d[3], 21)
		a[18] = bits.RotateLeft64(a[17]^d[2], 15)
		a[17] = bits.RotateLeft64(a[11]^d[1], 10)
		a[11] = bits.RotateLeft64(a[7]^d[2], 6)
		a[7] = bits.RotateLeft64(a[10]^d[0], 3)
		a[10] = t

		// Chi, row by row, then iota on the first lane. The column
		// parities for the next round's theta fall out for free.
		for y := 0; y < 25; y += 5 {
			b0, b1, b2, b3, b4 := a[y], a[y+1], a[y+2], a[y+3], a[y+4]
			a[y] = b0 ^ (^b1 & b2)
			a[y+1] = b1 ^ (^b2 & b3)
			a[y+2] = b2 ^ (^b3 & b4)
			a[y+3] = b3 ^ (^b4 & b0)
			a[y+4] = b4 ^ (^b0 & b1)
		}
		a[0] ^= roundConstants[i]

		c[0] = a[0] ^ a[5] ^ a[10] ^ a[15] ^ a[20]
		c[1] = a[1] ^ a[6] ^ a[11] ^ a[16] ^ a[21]
		c[2] = a[2] ^ a[7] ^ a[12] ^ a[17] ^ a[22]
		c[3] = a[3] ^ a[8] ^ a[13] ^ a[18] ^ a[23]
		c[4] = a[4] ^ a[9] ^ a[14] ^ a[19] ^ a[24]
	}
}

// Package sha3 implements the SHA-3 (Keccak sponge) hash family for the
// four standard digest widths: 224, 256, 384 and 512 bits.
//
// The sponge rate depends on the output width (rate = 200 - 2*digestBytes),
// so unlike the Merkle-Damgard families the block size is not a constant of
// the package but of the Digest instance.
package sha3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// stateBytes is the width of the Keccak-f[1600] state.
const stateBytes = 200

var (
	// ErrUnsupportedLength reports a digest width that is not one of the
	// four SHA-3 widths.
	ErrUnsupportedLength = errors.New("sha3: unsupported digest length")

	// ErrInvalidInputLength reports an absorb call whose buffer is not a
	// multiple of the lane size. Unreachable through Write/Sum, which only
	// ever absorb full rate blocks.
	ErrInvalidInputLength = errors.New("sha3: absorb length not a multiple of 8")
)

// Digest is a streaming SHA-3 context. The zero value is not usable; obtain
// one from New or the fixed-width constructors.
//
// A Digest may be reused: Sum finalizes the current computation and resets
// the context, so one object can produce many digests in sequence.
type Digest struct {
	state  [25]uint64
	block  []byte // rate-sized buffer for a partial input block
	cursor int    // bytes of block holding pending, unabsorbed input
	size   int    // digest size in bytes
}

// New returns a Digest producing bits-wide output. Valid widths are 224,
// 256, 384 and 512 bits; anything else fails with ErrUnsupportedLength.
func New(bits int) (*Digest, error) {
	switch bits {
	case 224, 256, 384, 512:
	default:
		return nil, fmt.Errorf("%w: %d bits (valid lengths are 224, 256, 384 and 512)",
			ErrUnsupportedLength, bits)
	}
	size := bits / 8
	return &Digest{
		block: make([]byte, stateBytes-2*size),
		size:  size,
	}, nil
}

// New224 returns a SHA3-224 context.
func New224() *Digest { d, _ := New(224); return d }

// New256 returns a SHA3-256 context.
func New256() *Digest { d, _ := New(256); return d }

// New384 returns a SHA3-384 context.
func New384() *Digest { d, _ := New(384); return d }

// New512 returns a SHA3-512 context.
func New512() *Digest { d, _ := New(512); return d }

// Size returns the digest length in bytes.
func (d *Digest) Size() int { return d.size }

// BlockSize returns the sponge rate in bytes.
func (d *Digest) BlockSize() int { return len(d.block) }

// Reset returns the context to its initial state.
func (d *Digest) Reset() {
	d.state = [25]uint64{}
	d.cursor = 0
}

// absorb XORs a rate-aligned buffer onto the state lanes little-endian and
// runs the permutation once.
func (d *Digest) absorb(p []byte) error {
	if len(p)%8 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidInputLength, len(p))
	}
	for i := 0; i < len(p); i += 8 {
		d.state[i/8] ^= binary.LittleEndian.Uint64(p[i:])
	}
	keccakF1600(&d.state)
	return nil
}

// Write absorbs p into the sponge. It first tops up any partial block left
// from a previous call, then absorbs full blocks directly from p, and stashes
// the remaining tail in the block buffer. It never fails; the error return
// satisfies io.Writer.
func (d *Digest) Write(p []byte) (int, error) {
	n := len(p)
	bs := len(d.block)

	if d.cursor > 0 {
		c := copy(d.block[d.cursor:], p)
		d.cursor += c
		p = p[c:]
		if d.cursor < bs {
			return n, nil
		}
		if err := d.absorb(d.block); err != nil {
			return n - len(p), err
		}
		d.cursor = 0
	}

	for len(p) >= bs {
		if err := d.absorb(p[:bs]); err != nil {
			return n - len(p), err
		}
		p = p[bs:]
	}

	d.cursor = copy(d.block, p)
	return n, nil
}

// Sum pads and absorbs the trailing partial block, appends the digest to b,
// and resets the context for reuse.
//
// Padding appends the 0x06 domain-separation byte, zero-fills to the block
// boundary and sets the top bit of the final rate byte, then runs the
// permutation one last time. The digest is the little-endian serialization
// of the state, truncated to the digest size.
func (d *Digest) Sum(b []byte) []byte {
	bs := len(d.block)
	d.block[d.cursor] = 0x06
	for i := d.cursor + 1; i < bs; i++ {
		d.block[i] = 0
	}
	d.block[bs-1] |= 0x80
	d.absorb(d.block) // a full rate block, cannot fail

	out := make([]byte, d.size)
	for i := range out {
		out[i] = byte(d.state[i/8] >> (8 * (i % 8)))
	}
	d.Reset()
	return append(b, out...)
}

// SumReader computes the bits-wide SHA-3 digest of everything readable from
// r, consuming it in block-aligned chunks. A read error aborts the
// computation; no partial digest is returned.
func SumReader(r io.Reader, bits int) ([]byte, error) {
	d, err := New(bits)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, d.BlockSize()*256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sha3: read: %w", err)
		}
	}
	return d.Sum(nil), nil
}

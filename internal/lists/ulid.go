package lists

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// IDs are ULIDs: 26 Crockford base32 characters, a 48-bit millisecond
// timestamp followed by 80 bits of randomness. IDs minted in the same
// millisecond carry an increasing sequence in their first random bytes.

var (
	idMu    sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewID returns a new ULID. It is safe for concurrent use.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	for i := 0; i < 6; i++ {
		b[i] = byte(ts >> (40 - 8*i))
	}
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)
	return encodeULID(b)
}

// encodeULID writes the 128 bits of b as 26 five-bit digits. The first digit
// carries only the top three bits.
func encodeULID(b [16]byte) string {
	var out [26]byte
	for i := range out {
		// Bit offset of this digit, counting two virtual leading zero bits.
		start := i*5 - 2
		var digit byte
		for bit := start; bit < start+5; bit++ {
			digit <<= 1
			if bit >= 0 && b[bit/8]&(0x80>>(bit%8)) != 0 {
				digit |= 1
			}
		}
		out[i] = crockford[digit]
	}
	return string(out[:])
}

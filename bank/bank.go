// Package bank provides the TCAM storage bank.
//
// The bank holds ternary entries as (value, care-mask) pairs over an Akita
// storage component. Physical block partitioning is a property of the
// storage collaborator; the bank exposes whole-array semantics only:
// masked word writes and an all-entries compare.
package bank

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/sarchlab/akita/v4/mem/mem"
)

// ErrOutOfRange reports an entry address at or beyond the configured
// entry count. Addresses are never wrapped.
var ErrOutOfRange = fmt.Errorf("entry address out of range")

// wordBytes is the width of one entry word in bytes. Keys and data are at
// most 32 bits wide in every supported configuration.
const wordBytes = 4

// entryStride is the storage footprint of one entry: the value word
// followed by the care-mask word.
const entryStride = 2 * wordBytes

// Statistics holds bank access counters.
type Statistics struct {
	Writes   uint64
	Compares uint64
}

// Bank represents the associative storage array.
type Bank struct {
	entries   int
	dataWidth int

	// Backing store for entry state. Layout per entry: value word at
	// addr*entryStride, care-mask word at addr*entryStride+wordBytes,
	// both little-endian.
	storage *mem.Storage

	stats Statistics
}

// New creates a bank with the given entry count and data width in bits.
func New(entries, dataWidth int) *Bank {
	return &Bank{
		entries:   entries,
		dataWidth: dataWidth,
		storage:   mem.NewStorage(uint64(entries * entryStride)),
	}
}

// Entries returns the configured entry count.
func (b *Bank) Entries() int {
	return b.entries
}

// Stats returns bank access statistics.
func (b *Bank) Stats() Statistics {
	return b.stats
}

// CheckAddr validates an entry address without touching storage.
func (b *Bank) CheckAddr(addr uint32) error {
	if int(addr) >= b.entries {
		return fmt.Errorf("%w: %d >= %d", ErrOutOfRange, addr, b.entries)
	}
	return nil
}

// Write commits data into the addressed entry. Only bytes enabled in
// byteMask (bit i enables data byte i) are overwritten; enabled bytes also
// narrow the entry's care mask, so a byte becomes "cared" the first time it
// is explicitly written. Disabled bytes keep their prior value and their
// prior care state.
func (b *Bank) Write(addr uint32, data uint32, byteMask uint8) error {
	if err := b.CheckAddr(addr); err != nil {
		return err
	}

	value, mask, err := b.load(addr)
	if err != nil {
		return err
	}

	for i := 0; i < wordBytes; i++ {
		if byteMask&(1<<i) == 0 {
			continue
		}
		lane := uint32(0xFF) << (8 * i)
		value = (value &^ lane) | (data & lane)
		mask |= lane
	}
	mask &= b.widthMask()

	b.stats.Writes++
	return b.store(addr, value, mask)
}

// Read probes the stored (value, care-mask) pair of one entry. This is an
// internal observation point for the engine and tests; the host-visible
// Read operation is a defined no-op and never reaches the bank.
func (b *Bank) Read(addr uint32) (value, mask uint32, err error) {
	if err := b.CheckAddr(addr); err != nil {
		return 0, 0, err
	}
	return b.load(addr)
}

// CompareAll broadcasts the key against every entry and returns one match
// flag per entry. An entry matches when every cared bit of its value equals
// the corresponding key bit. Entries whose care mask is still all-don't-care
// (never written) are excluded: a fully-don't-care entry would otherwise
// match every key, making an empty table answer every search with entry 0.
func (b *Bank) CompareAll(key uint32) (*bitset.BitSet, error) {
	flags := bitset.New(uint(b.entries))

	for addr := 0; addr < b.entries; addr++ {
		value, mask, err := b.load(uint32(addr))
		if err != nil {
			return nil, err
		}
		if mask == 0 {
			continue
		}
		if (value^key)&mask == 0 {
			flags.Set(uint(addr))
		}
	}

	b.stats.Compares++
	return flags, nil
}

// Reset clears every entry back to all-don't-care and zeroes statistics.
func (b *Bank) Reset() {
	b.storage = mem.NewStorage(uint64(b.entries * entryStride))
	b.stats = Statistics{}
}

// widthMask returns the bit mask covering dataWidth bits.
func (b *Bank) widthMask() uint32 {
	if b.dataWidth >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << b.dataWidth) - 1
}

func (b *Bank) load(addr uint32) (value, mask uint32, err error) {
	raw, err := b.storage.Read(uint64(addr)*entryStride, entryStride)
	if err != nil {
		return 0, 0, fmt.Errorf("bank storage read failed: %w", err)
	}
	value = decodeWord(raw[:wordBytes])
	mask = decodeWord(raw[wordBytes:])
	return value, mask, nil
}

func (b *Bank) store(addr uint32, value, mask uint32) error {
	raw := make([]byte, entryStride)
	encodeWord(raw[:wordBytes], value)
	encodeWord(raw[wordBytes:], mask)

	if err := b.storage.Write(uint64(addr)*entryStride, raw); err != nil {
		return fmt.Errorf("bank storage write failed: %w", err)
	}
	return nil
}

// decodeWord assembles a little-endian word from a byte slice.
func decodeWord(raw []byte) uint32 {
	var word uint32
	for i := 0; i < wordBytes; i++ {
		word |= uint32(raw[i]) << (8 * i)
	}
	return word
}

// encodeWord spreads a word into a byte slice, little-endian.
func encodeWord(raw []byte, word uint32) {
	for i := 0; i < wordBytes; i++ {
		raw[i] = byte(word >> (8 * i))
	}
}

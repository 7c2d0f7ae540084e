package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blowfish"

	"github.com/la2go/mmocore/internal/constants"
)

// DefaultDummyBlowfishKey is the static key both ends of the
// AwaitingDummy bootstrap exchange share, used before the DH-derived
// stream cipher key takes over.
var DefaultDummyBlowfishKey = []byte{
	0x5F, 0x3B, 0x76, 0x2E, 0x5D, 0x30, 0x35, 0x2D,
	0x33, 0x31, 0x21, 0x7C, 0x2B, 0x2D, 0x25, 0x78,
	0x54, 0x21, 0x5E, 0x5B, 0x24, 0x00,
}

// BlowfishCipher wraps ECB-mode Blowfish for the AwaitingDummy bootstrap
// exchange, where both directions are fixed-size and block-aligned.
type BlowfishCipher struct {
	cipher *blowfish.Cipher
}

// NewBlowfishCipher builds a BlowfishCipher from key.
func NewBlowfishCipher(key []byte) (*BlowfishCipher, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating blowfish cipher: %w", err)
	}
	return &BlowfishCipher{cipher: c}, nil
}

// blockRange checks that data[offset:offset+size] is a whole number
// of Blowfish blocks and within bounds, before either direction walks
// it block by block.
func blockRange(data []byte, offset, size int) error {
	if size%constants.BlowfishBlockSize != 0 {
		return fmt.Errorf("size %d is not a multiple of %d", size, constants.BlowfishBlockSize)
	}
	if offset < 0 || offset+size > len(data) {
		return fmt.Errorf("offset %d + size %d exceeds data length %d", offset, size, len(data))
	}
	return nil
}

// Encrypt transforms data[offset:offset+size] in place, one ECB block
// at a time.
func (b *BlowfishCipher) Encrypt(data []byte, offset, size int) error {
	if err := blockRange(data, offset, size); err != nil {
		return fmt.Errorf("blowfish encrypt: %w", err)
	}
	for pos := offset; pos < offset+size; pos += constants.BlowfishBlockSize {
		block := data[pos : pos+constants.BlowfishBlockSize]
		b.cipher.Encrypt(block, block)
	}
	return nil
}

// Decrypt is Encrypt's inverse.
func (b *BlowfishCipher) Decrypt(data []byte, offset, size int) error {
	if err := blockRange(data, offset, size); err != nil {
		return fmt.Errorf("blowfish decrypt: %w", err)
	}
	for pos := offset; pos < offset+size; pos += constants.BlowfishBlockSize {
		block := data[pos : pos+constants.BlowfishBlockSize]
		b.cipher.Decrypt(block, block)
	}
	return nil
}

// foldXOR XORs together the n/4 little-endian words starting at
// offset. n must be a multiple of constants.PacketChecksumSize.
func foldXOR(data []byte, offset, n int) uint32 {
	var acc uint32
	for i := 0; i < n; i += constants.PacketChecksumSize {
		acc ^= binary.LittleEndian.Uint32(data[offset+i:])
	}
	return acc
}

// AppendChecksum writes the XOR of the leading words of
// data[offset:offset+size] into its trailing 4 bytes. size must leave
// room for that trailing word and be a multiple of
// constants.PacketChecksumSize.
func AppendChecksum(data []byte, offset, size int) {
	sum := foldXOR(data, offset, size-constants.PacketChecksumSize)
	binary.LittleEndian.PutUint32(data[offset+size-constants.PacketChecksumSize:], sum)
}

// VerifyChecksum reports whether every word of data[offset:offset+size],
// including the trailing checksum word AppendChecksum wrote, XORs to
// zero.
func VerifyChecksum(data []byte, offset, size int) bool {
	if size%constants.PacketChecksumSize != 0 || size <= constants.PacketChecksumSize {
		return false
	}
	return foldXOR(data, offset, size) == 0
}

// xorPassSpan returns the word range EncXORPass/DecXORPass walk: it
// skips the leading cleartext marker and stops short of the trailing
// accumulator word.
func xorPassSpan(offset, size int) (start, end int) {
	return offset + constants.XOREncryptSkipBytes, offset + size - constants.XOREncryptStopOffset
}

// EncXORPass applies the AwaitingDummy packet's pre-Blowfish XOR pass:
// the leading marker word is left alone, each word after it is folded
// into a running accumulator seeded with key and XORed against that
// accumulator, and the accumulator's final value becomes the packet's
// second-to-last word.
func EncXORPass(data []byte, offset, size int, key int32) {
	start, end := xorPassSpan(offset, size)
	acc := uint32(key)
	for pos := start; pos < end; pos += constants.PacketChecksumSize {
		word := binary.LittleEndian.Uint32(data[pos:])
		acc += word
		word ^= acc
		binary.LittleEndian.PutUint32(data[pos:], word)
	}
	binary.LittleEndian.PutUint32(data[end:], acc)
}

// DecXORPass reverses EncXORPass: it reads the accumulator EncXORPass
// left behind and peels the same words back off it, walking end to
// start.
func DecXORPass(data []byte, offset, size int) {
	start, end := xorPassSpan(offset, size)
	acc := binary.LittleEndian.Uint32(data[end:])
	for pos := end - constants.PacketChecksumSize; pos >= start; pos -= constants.PacketChecksumSize {
		word := binary.LittleEndian.Uint32(data[pos:])
		word ^= acc
		binary.LittleEndian.PutUint32(data[pos:], word)
		acc -= word
	}
}

// BuildDummyPacket constructs one constants.DummyPacketSize-byte
// AwaitingDummy bootstrap packet: a cleartext marker word, a payload
// word obfuscated by the XOR pass, the XOR pass's accumulator word,
// a whole-packet XOR checksum, Blowfish-encrypted as two 8-byte
// blocks. Used for both the client's inbound dummy packet and the
// server's outbound acknowledgement, keyed with the same bootstrap
// key on both ends.
func BuildDummyPacket(key []byte, marker, payload uint32, xorKey int32) ([]byte, error) {
	buf := make([]byte, constants.DummyPacketSize)
	binary.LittleEndian.PutUint32(buf[0:4], marker)
	binary.LittleEndian.PutUint32(buf[4:8], payload)

	EncXORPass(buf, 0, len(buf), xorKey)
	AppendChecksum(buf, 0, len(buf))

	bf, err := NewBlowfishCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building dummy packet: %w", err)
	}
	if err := bf.Encrypt(buf, 0, len(buf)); err != nil {
		return nil, fmt.Errorf("building dummy packet: %w", err)
	}
	return buf, nil
}

// ParseDummyPacket reverses BuildDummyPacket: it Blowfish-decrypts
// buf, verifies the checksum, then undoes the XOR pass to recover
// the marker and payload words.
func ParseDummyPacket(key []byte, buf []byte) (marker, payload uint32, err error) {
	if len(buf) != constants.DummyPacketSize {
		return 0, 0, fmt.Errorf("dummy packet: want %d bytes, got %d", constants.DummyPacketSize, len(buf))
	}

	bf, err := NewBlowfishCipher(key)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing dummy packet: %w", err)
	}
	if err := bf.Decrypt(buf, 0, len(buf)); err != nil {
		return 0, 0, fmt.Errorf("parsing dummy packet: %w", err)
	}
	if !VerifyChecksum(buf, 0, len(buf)) {
		return 0, 0, fmt.Errorf("dummy packet checksum mismatch")
	}
	DecXORPass(buf, 0, len(buf))

	marker = binary.LittleEndian.Uint32(buf[0:4])
	payload = binary.LittleEndian.Uint32(buf[4:8])
	return marker, payload, nil
}

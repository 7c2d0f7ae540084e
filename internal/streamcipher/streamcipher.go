// Package streamcipher implements the stateful, byte-wise directional
// stream cipher built atop the block cipher core.
package streamcipher

import (
	"fmt"

	"github.com/la2go/mmocore/internal/crypto"
)

// StreamCipher is one direction of a session's encrypted channel. It
// is not safe for concurrent use; the Session Framer's read task owns
// the inbound instance and the write task owns the outbound instance.
type StreamCipher struct {
	block   *crypto.BlockCipher
	iv      [8]byte
	counter int
}

// New derives a StreamCipher from a key of at least 16 bytes; only
// the first 16 are used as the block cipher key.
func New(key []byte) (*StreamCipher, error) {
	if len(key) < crypto.BlockKeySize {
		return nil, fmt.Errorf("streamcipher: key must be at least %d bytes, got %d", crypto.BlockKeySize, len(key))
	}
	var bk [crypto.BlockKeySize]byte
	copy(bk[:], key[:crypto.BlockKeySize])

	return &StreamCipher{
		block: crypto.NewBlockCipher(bk),
	}, nil
}

// Reset clears the IV and counter, leaving the derived block key
// untouched.
func (s *StreamCipher) Reset() {
	s.iv = [8]byte{}
	s.counter = 0
}

// Encrypt transforms data in place, advancing state by exactly
// len(data) bytes.
func (s *StreamCipher) Encrypt(data []byte) {
	for i := range data {
		if s.counter == 0 {
			s.iv = s.block.EncryptBlock(s.iv)
		}
		c := data[i] ^ s.iv[s.counter]
		s.iv[s.counter] = c
		data[i] = c
		s.counter = (s.counter + 1) % 8
	}
}

// Decrypt transforms data in place, advancing state by exactly
// len(data) bytes.
func (s *StreamCipher) Decrypt(data []byte) {
	for i := range data {
		if s.counter == 0 {
			s.iv = s.block.EncryptBlock(s.iv)
		}
		c := data[i]
		p := c ^ s.iv[s.counter]
		s.iv[s.counter] = c
		data[i] = p
		s.counter = (s.counter + 1) % 8
	}
}

package crypto

import (
	"encoding/binary"
	"math/bits"
)

// BlockKeySize is the width of the key accepted by the block cipher
// core's key schedule.
const BlockKeySize = 16

const rounds = 16

// roundConstants seed the per-round masking subkeys. Fixed, not
// secret.
var roundConstants = [rounds]uint32{
	0x9e3779b9, 0x3c6ef372, 0x78dde6e4, 0xf1bbcdc8,
	0xe3779b91, 0xc6ef3723, 0x8dde6e47, 0x1bbcdc8f,
	0x3779b91e, 0x6ef3723c, 0xdde6e478, 0xbbcdc8f1,
	0x779b91e3, 0xef3723c6, 0xde6e478d, 0xbcdc8f1b,
}

var sbox [4][256]uint32

func init() {
	seeds := [4]uint32{0x01000193, 0x811c9dc5, 0x85ebca6b, 0xc2b2ae35}
	for t := 0; t < 4; t++ {
		seed := seeds[t]
		for b := 0; b < 256; b++ {
			v := uint32(b) * seed
			v ^= bits.RotateLeft32(v, 13)
			v += uint32(t+1) * 0x9e3779b9
			v ^= bits.RotateLeft32(v, 7)
			v *= seed | 1
			sbox[t][b] = v
		}
	}
}

// roundKeys holds the 32 subkeys (16 masking, 16 rotation) derived
// from a 128-bit key.
type roundKeys struct {
	km [rounds]uint32
	kr [rounds]byte
}

// scheduleKey expands a 16-byte key into the per-round subkeys.
func scheduleKey(key [BlockKeySize]byte) roundKeys {
	var k [4]uint32
	for i := 0; i < 4; i++ {
		k[i] = binary.BigEndian.Uint32(key[i*4 : i*4+4])
	}

	var rk roundKeys
	for i := 0; i < rounds; i++ {
		rotated := bits.RotateLeft32(k[i%4], i)
		rk.km[i] = rotated ^ roundConstants[i]
		rk.kr[i] = byte((rotated>>27)+uint32(i)) & 0x1f
	}
	return rk
}

// f1 combines S-box lookups as (a+b)^c-d.
func f1(x, km uint32, kr byte) uint32 {
	x = bits.RotateLeft32(x, int(kr))
	x += km
	a := sbox[0][byte(x)]
	b := sbox[1][byte(x>>8)]
	c := sbox[2][byte(x>>16)]
	d := sbox[3][byte(x>>24)]
	return ((a + b) ^ c) - d
}

// f2 combines S-box lookups as (a^b)+c-d.
func f2(x, km uint32, kr byte) uint32 {
	x = bits.RotateLeft32(x, int(kr))
	x += km
	a := sbox[0][byte(x)]
	b := sbox[1][byte(x>>8)]
	c := sbox[2][byte(x>>16)]
	d := sbox[3][byte(x>>24)]
	return ((a ^ b) + c) - d
}

// f3 combines S-box lookups as (a-b)^c+d.
func f3(x, km uint32, kr byte) uint32 {
	x = bits.RotateLeft32(x, int(kr))
	x += km
	a := sbox[0][byte(x)]
	b := sbox[1][byte(x>>8)]
	c := sbox[2][byte(x>>16)]
	d := sbox[3][byte(x>>24)]
	return ((a - b) ^ c) + d
}

// BlockCipher is the 16-round Feistel block primitive of §4.1. It is
// pure: EncryptBlock has no observable state and performs no heap
// allocation.
type BlockCipher struct {
	rk roundKeys
}

// NewBlockCipher derives round subkeys from a 16-byte key.
func NewBlockCipher(key [BlockKeySize]byte) *BlockCipher {
	return &BlockCipher{rk: scheduleKey(key)}
}

// EncryptBlock runs the 16-round Feistel network over an 8-byte
// block. in and out may alias.
func (c *BlockCipher) EncryptBlock(in [8]byte) [8]byte {
	l := binary.BigEndian.Uint32(in[0:4])
	r := binary.BigEndian.Uint32(in[4:8])

	for i := 0; i < rounds; i++ {
		var f uint32
		switch i % 3 {
		case 0:
			f = f1(r, c.rk.km[i], c.rk.kr[i])
		case 1:
			f = f2(r, c.rk.km[i], c.rk.kr[i])
		default:
			f = f3(r, c.rk.km[i], c.rk.kr[i])
		}
		l, r = r, l^f
	}

	var out [8]byte
	binary.BigEndian.PutUint32(out[0:4], l)
	binary.BigEndian.PutUint32(out[4:8], r)
	return out
}

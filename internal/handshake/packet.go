package handshake

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/la2go/mmocore/internal/constants"
)

// BuildOffer serializes the server's half of the handshake per §4.3:
// an 11-byte zero header, then
// {u32 len_after_offset, u32 10, padding[10], u32 8, padding[8],
//  u32 8, padding[8], u32 |P|, P, u32 |G|, G, u32 |pub|, pub_hex, pad[2]}.
func BuildOffer(p, g, pub *big.Int) []byte {
	pBytes := p.Bytes()
	gBytes := g.Bytes()
	pubHex := []byte(fmt.Sprintf("%X", pub))

	body := make([]byte, 0, 4+4+10+4+8+4+8+4+len(pBytes)+4+len(gBytes)+4+len(pubHex)+constants.HandshakePadTail)

	body = appendU32(body, 10)
	body = append(body, make([]byte, 10)...)
	body = appendU32(body, 8)
	body = append(body, make([]byte, 8)...)
	body = appendU32(body, 8)
	body = append(body, make([]byte, 8)...)
	body = appendU32(body, uint32(len(pBytes)))
	body = append(body, pBytes...)
	body = appendU32(body, uint32(len(gBytes)))
	body = append(body, gBytes...)
	body = appendU32(body, uint32(len(pubHex)))
	body = append(body, pubHex...)
	body = append(body, make([]byte, constants.HandshakePadTail)...)

	out := make([]byte, constants.HandshakeHeaderSize+4+len(body))
	binary.LittleEndian.PutUint32(out[constants.HandshakeHeaderSize:constants.HandshakeHeaderSize+4], uint32(len(body)))
	copy(out[constants.HandshakeHeaderSize+4:], body)

	return out
}

// ParseOffer reverses BuildOffer, extracting P, G and the server's
// public key.
func ParseOffer(buf []byte) (p, g, pub *big.Int, err error) {
	if len(buf) < constants.HandshakeHeaderSize+4 {
		return nil, nil, nil, fmt.Errorf("handshake offer too short: %d bytes", len(buf))
	}
	body := buf[constants.HandshakeHeaderSize+4:]

	off := 0
	off += 4 + 10 // u32 10 + padding[10]
	off += 4 + 8  // u32 8 + padding[8]
	off += 4 + 8  // u32 8 + padding[8]

	if off+4 > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated before P length")
	}
	pLen := int(binary.LittleEndian.Uint32(body[off : off+4]))
	off += 4
	if off+pLen > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated P")
	}
	p = new(big.Int).SetBytes(body[off : off+pLen])
	off += pLen

	if off+4 > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated before G length")
	}
	gLen := int(binary.LittleEndian.Uint32(body[off : off+4]))
	off += 4
	if off+gLen > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated G")
	}
	g = new(big.Int).SetBytes(body[off : off+gLen])
	off += gLen

	if off+4 > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated before pub length")
	}
	pubLen := int(binary.LittleEndian.Uint32(body[off : off+4]))
	off += 4
	if off+pubLen > len(body) {
		return nil, nil, nil, fmt.Errorf("handshake offer truncated pub")
	}
	pubHex := body[off : off+pubLen]

	pub, ok := new(big.Int).SetString(string(pubHex), 16)
	if !ok {
		return nil, nil, nil, fmt.Errorf("handshake offer: malformed pub hex %q", pubHex)
	}

	return p, g, pub, nil
}

// BuildResponse serializes the client's reply: its own public key in
// the same outer shape, with pub_hex of identical length to the
// offer's.
func BuildResponse(pub *big.Int, hexLen int) []byte {
	pubHex := []byte(fmt.Sprintf("%0*X", hexLen, pub))

	body := make([]byte, 0, 4+len(pubHex)+constants.HandshakePadTail)
	body = appendU32(body, uint32(len(pubHex)))
	body = append(body, pubHex...)
	body = append(body, make([]byte, constants.HandshakePadTail)...)

	out := make([]byte, constants.HandshakeHeaderSize+4+len(body))
	binary.LittleEndian.PutUint32(out[constants.HandshakeHeaderSize:constants.HandshakeHeaderSize+4], uint32(len(body)))
	copy(out[constants.HandshakeHeaderSize+4:], body)

	return out
}

// ParseResponse extracts the client's public key from its reply.
func ParseResponse(buf []byte) (*big.Int, error) {
	if len(buf) < constants.HandshakeHeaderSize+4+4 {
		return nil, fmt.Errorf("handshake response too short: %d bytes", len(buf))
	}
	body := buf[constants.HandshakeHeaderSize+4:]

	pubLen := int(binary.LittleEndian.Uint32(body[0:4]))
	if 4+pubLen > len(body) {
		return nil, fmt.Errorf("handshake response truncated pub")
	}
	pubHex := body[4 : 4+pubLen]

	pub, ok := new(big.Int).SetString(string(pubHex), 16)
	if !ok {
		return nil, fmt.Errorf("handshake response: malformed pub hex %q", pubHex)
	}
	return pub, nil
}

func appendU32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

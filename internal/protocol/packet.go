// Package protocol implements the wire frame builder/reader described
// in §6.1: a length-prefixed, opcode-routed frame with a fixed 2-byte
// seal trailer, plus the Protobuf record codecs carried inside
// certain opcodes' payloads.
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/la2go/mmocore/internal/constants"
	"github.com/la2go/mmocore/internal/protoerr"
)

// Packet is a decoded frame: an opcode plus its payload, with the
// length header and seal trailer already stripped.
type Packet struct {
	Opcode  uint16
	Payload []byte
}

// BuildFrame serializes opcode and payload into a finalized frame:
// header, payload, seal, with the length field patched at offset 0.
// The caller passes the result through the outbound Stream Cipher
// before writing it to the socket.
func BuildFrame(opcode uint16, payload []byte) ([]byte, error) {
	length := constants.FrameHeaderSize + len(payload) + constants.SealSize
	if length > constants.MaxFrameLength {
		return nil, fmt.Errorf("%w: frame length %d exceeds max %d", protoerr.ErrProtocol, length, constants.MaxFrameLength)
	}

	buf := make([]byte, length)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(length))
	binary.LittleEndian.PutUint16(buf[2:4], opcode)
	copy(buf[4:4+len(payload)], payload)
	copy(buf[length-constants.SealSize:], constants.SealBytes[:])

	return buf, nil
}

// FrameReader accumulates decrypted bytes from a session's inbound
// Stream Cipher and yields complete frames. No partial frame is ever
// returned; the reader slides its internal buffer as frames are
// consumed.
type FrameReader struct {
	buf []byte
}

// Feed appends freshly decrypted bytes to the reader's buffer.
func (r *FrameReader) Feed(data []byte) {
	r.buf = append(r.buf, data...)
}

// Next returns the next complete frame, if one is buffered. It
// returns (nil, nil) when more bytes are needed, and a protoerr.ErrProtocol-wrapped
// error (with the session already unrecoverable) if the buffered
// length header is out of range or the seal does not match.
func (r *FrameReader) Next() (*Packet, error) {
	if len(r.buf) < constants.MinFrameLength {
		return nil, nil
	}

	length := int(binary.LittleEndian.Uint16(r.buf[0:2]))
	minLength := constants.FrameHeaderSize + constants.SealSize
	if length < minLength || length > constants.MaxFrameLength {
		return nil, fmt.Errorf("%w: frame length %d out of range [%d, %d]", protoerr.ErrProtocol, length, minLength, constants.MaxFrameLength)
	}

	if len(r.buf) < length {
		return nil, nil
	}

	frame := r.buf[:length]
	seal := frame[length-constants.SealSize:]
	if seal[0] != constants.SealBytes[0] || seal[1] != constants.SealBytes[1] {
		return nil, fmt.Errorf("%w: bad seal %x", protoerr.ErrProtocol, seal)
	}

	opcode := binary.LittleEndian.Uint16(frame[2:4])
	payload := make([]byte, length-constants.FrameHeaderSize-constants.SealSize)
	copy(payload, frame[4:length-constants.SealSize])

	remaining := make([]byte, len(r.buf)-length)
	copy(remaining, r.buf[length:])
	r.buf = remaining

	return &Packet{Opcode: opcode, Payload: payload}, nil
}

package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/la2go/mmocore/internal/protoerr"
)

// Talk is the opcode 1004 Protobuf record. Strings is indexed
// positionally by convention: 0=from, 1=to, 3=message, 5=suffix; the
// remaining indices are reserved and may be empty.
type Talk struct {
	Timestamp uint32
	ChatType  uint8
	Mesh      uint32
	Strings   []string
}

const (
	talkFieldTimestamp protowire.Number = 1
	talkFieldChatType  protowire.Number = 2
	talkFieldMesh      protowire.Number = 3
	talkFieldStrings   protowire.Number = 4
)

// Marshal encodes t as a Protobuf message using the low-level
// protowire codec.
func (t Talk) Marshal() []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, talkFieldTimestamp, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(t.Timestamp))
	buf = protowire.AppendTag(buf, talkFieldChatType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(t.ChatType))
	buf = protowire.AppendTag(buf, talkFieldMesh, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(t.Mesh))
	for _, s := range t.Strings {
		buf = protowire.AppendTag(buf, talkFieldStrings, protowire.BytesType)
		buf = protowire.AppendString(buf, s)
	}
	return buf
}

// UnmarshalTalk decodes a Talk record, requiring at least 4 strings
// per §6.1 (indexes 0..3 must exist; the record may carry more).
func UnmarshalTalk(b []byte) (Talk, error) {
	var t Talk

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Talk{}, fmt.Errorf("%w: talk record: bad tag", protoerr.ErrProtocol)
		}
		b = b[n:]

		switch num {
		case talkFieldTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Talk{}, fmt.Errorf("%w: talk record: bad timestamp", protoerr.ErrProtocol)
			}
			t.Timestamp = uint32(v)
			b = b[n:]
		case talkFieldChatType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Talk{}, fmt.Errorf("%w: talk record: bad chat_type", protoerr.ErrProtocol)
			}
			t.ChatType = uint8(v)
			b = b[n:]
		case talkFieldMesh:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Talk{}, fmt.Errorf("%w: talk record: bad mesh", protoerr.ErrProtocol)
			}
			t.Mesh = uint32(v)
			b = b[n:]
		case talkFieldStrings:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Talk{}, fmt.Errorf("%w: talk record: bad string field", protoerr.ErrProtocol)
			}
			t.Strings = append(t.Strings, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Talk{}, fmt.Errorf("%w: talk record: unknown field", protoerr.ErrProtocol)
			}
			b = b[n:]
		}
	}

	if len(t.Strings) < 4 {
		return Talk{}, fmt.Errorf("%w: talk record: expected at least 4 strings, got %d", protoerr.ErrValidation, len(t.Strings))
	}

	return t, nil
}

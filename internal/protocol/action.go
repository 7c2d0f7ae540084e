package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/la2go/mmocore/internal/protoerr"
)

// ActionType is the opcode 1010 record's discriminant.
type ActionType uint32

const (
	ActionUnknown     ActionType = 0
	ActionSetLocation ActionType = 1
	ActionJump        ActionType = 2
)

// Action is the opcode 1010 Protobuf record.
type Action struct {
	UID       uint32
	Type      ActionType
	Param1    int32
	Param2    int32
	WParam1   uint16
	WParam2   uint16
	DwParamLo uint16
	DwParamHi uint16
}

const (
	actionFieldUID    protowire.Number = 1
	actionFieldType   protowire.Number = 2
	actionFieldParam1 protowire.Number = 3
	actionFieldParam2 protowire.Number = 4
	actionFieldWP1    protowire.Number = 5
	actionFieldWP2    protowire.Number = 6
	actionFieldDwLo   protowire.Number = 7
	actionFieldDwHi   protowire.Number = 8
)

// Marshal encodes a as a Protobuf message.
func (a Action) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, actionFieldUID, uint64(a.UID))
	buf = appendVarintField(buf, actionFieldType, uint64(a.Type))
	buf = appendVarintField(buf, actionFieldParam1, uint64(uint32(a.Param1)))
	buf = appendVarintField(buf, actionFieldParam2, uint64(uint32(a.Param2)))
	buf = appendVarintField(buf, actionFieldWP1, uint64(a.WParam1))
	buf = appendVarintField(buf, actionFieldWP2, uint64(a.WParam2))
	buf = appendVarintField(buf, actionFieldDwLo, uint64(a.DwParamLo))
	buf = appendVarintField(buf, actionFieldDwHi, uint64(a.DwParamHi))
	return buf
}

func appendVarintField(buf []byte, num protowire.Number, v uint64) []byte {
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}

// UnmarshalAction decodes an Action record.
func UnmarshalAction(b []byte) (Action, error) {
	var a Action

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Action{}, fmt.Errorf("%w: action record: bad tag", protoerr.ErrProtocol)
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Action{}, fmt.Errorf("%w: action record: unknown field", protoerr.ErrProtocol)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return Action{}, fmt.Errorf("%w: action record: bad varint field %d", protoerr.ErrProtocol, num)
		}
		b = b[n:]

		switch num {
		case actionFieldUID:
			a.UID = uint32(v)
		case actionFieldType:
			a.Type = ActionType(v)
		case actionFieldParam1:
			a.Param1 = int32(v)
		case actionFieldParam2:
			a.Param2 = int32(v)
		case actionFieldWP1:
			a.WParam1 = uint16(v)
		case actionFieldWP2:
			a.WParam2 = uint16(v)
		case actionFieldDwLo:
			a.DwParamLo = uint16(v)
		case actionFieldDwHi:
			a.DwParamHi = uint16(v)
		}
	}

	return a, nil
}

package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/la2go/mmocore/internal/protoerr"
)

// HeroInfo is the opcode 1017 Protobuf record: a fixed flat set of
// scalar stats mirroring PlayerIdentity.
type HeroInfo struct {
	ID         uint32
	Name       string
	Level      int32
	Experience int64
	MapID      uint16
	X, Y       int16
	HP, MaxHP  int32
	MP, MaxMP  int32
}

const (
	heroFieldID         protowire.Number = 1
	heroFieldName       protowire.Number = 2
	heroFieldLevel      protowire.Number = 3
	heroFieldExperience protowire.Number = 4
	heroFieldMapID      protowire.Number = 5
	heroFieldX          protowire.Number = 6
	heroFieldY          protowire.Number = 7
	heroFieldHP         protowire.Number = 8
	heroFieldMaxHP      protowire.Number = 9
	heroFieldMP         protowire.Number = 10
	heroFieldMaxMP      protowire.Number = 11
)

// Marshal encodes h as a Protobuf message.
func (h HeroInfo) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, heroFieldID, uint64(h.ID))
	buf = protowire.AppendTag(buf, heroFieldName, protowire.BytesType)
	buf = protowire.AppendString(buf, h.Name)
	buf = appendVarintField(buf, heroFieldLevel, uint64(uint32(h.Level)))
	buf = appendVarintField(buf, heroFieldExperience, uint64(h.Experience))
	buf = appendVarintField(buf, heroFieldMapID, uint64(h.MapID))
	buf = appendVarintField(buf, heroFieldX, uint64(uint16(h.X)))
	buf = appendVarintField(buf, heroFieldY, uint64(uint16(h.Y)))
	buf = appendVarintField(buf, heroFieldHP, uint64(uint32(h.HP)))
	buf = appendVarintField(buf, heroFieldMaxHP, uint64(uint32(h.MaxHP)))
	buf = appendVarintField(buf, heroFieldMP, uint64(uint32(h.MP)))
	buf = appendVarintField(buf, heroFieldMaxMP, uint64(uint32(h.MaxMP)))
	return buf
}

// UnmarshalHeroInfo decodes a HeroInfo record.
func UnmarshalHeroInfo(b []byte) (HeroInfo, error) {
	var h HeroInfo

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return HeroInfo{}, fmt.Errorf("%w: heroinfo record: bad tag", protoerr.ErrProtocol)
		}
		b = b[n:]

		if num == heroFieldName {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return HeroInfo{}, fmt.Errorf("%w: heroinfo record: bad name", protoerr.ErrProtocol)
			}
			h.Name = v
			b = b[n:]
			continue
		}

		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return HeroInfo{}, fmt.Errorf("%w: heroinfo record: unknown field", protoerr.ErrProtocol)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return HeroInfo{}, fmt.Errorf("%w: heroinfo record: bad varint field %d", protoerr.ErrProtocol, num)
		}
		b = b[n:]

		switch num {
		case heroFieldID:
			h.ID = uint32(v)
		case heroFieldLevel:
			h.Level = int32(v)
		case heroFieldExperience:
			h.Experience = int64(v)
		case heroFieldMapID:
			h.MapID = uint16(v)
		case heroFieldX:
			h.X = int16(v)
		case heroFieldY:
			h.Y = int16(v)
		case heroFieldHP:
			h.HP = int32(v)
		case heroFieldMaxHP:
			h.MaxHP = int32(v)
		case heroFieldMP:
			h.MP = int32(v)
		case heroFieldMaxMP:
			h.MaxMP = int32(v)
		}
	}

	return h, nil
}

// Package constants holds the fixed wire-protocol values the core
// depends on: frame limits, the seal trailer, and the closed opcode
// enumeration.
package constants

// Frame layout.
const (
	// FrameHeaderSize is the {u16 length, u16 opcode} prefix common to
	// every Established-state frame.
	FrameHeaderSize = 4

	// MinFrameLength is the number of buffered bytes the frame reader
	// needs before it reads the length field. The smallest length value
	// it accepts is FrameHeaderSize + SealSize, since a shorter frame
	// has no room for the seal.
	MinFrameLength = 4

	// MaxFrameLength is the largest legal value of the length field.
	MaxFrameLength = 8192

	// SealSize is the width of the trailing framing sanity check.
	SealSize = 2
)

// SealBytes is the fixed 2-byte trailer every Established-state frame
// ends with.
var SealBytes = [SealSize]byte{0x01, 0x00}

// Opcodes understood by the core. Additional opcodes may be
// registered by external collaborators; these are the ones the core
// itself handles or sends (OpHeroInfo is outbound only and has no
// handler).
const (
	OpTalk      uint16 = 1004
	OpAction    uint16 = 1010
	OpHeroInfo  uint16 = 1017
	OpLoginAuth uint16 = 1052
	OpLoginGame uint16 = 1086
)

// Blowfish/legacy obfuscation constants, retained from the
// AwaitingDummy bootstrap stage.
const (
	BlowfishBlockSize    = 8
	PacketChecksumSize   = 4
	XOREncryptSkipBytes  = 4
	XOREncryptStopOffset = 8

	// DummyPacketSize is the fixed width of the AwaitingDummy bootstrap
	// packet exchanged in both directions: a session marker word, a
	// payload word, the XOR-pass accumulator word, and a checksum word,
	// Blowfish-encrypted as two 8-byte blocks.
	DummyPacketSize = 16
)

// Handshake packet layout (§4.3).
const (
	// HandshakeHeaderSize is the zero-filled header before the first
	// cleartext byte of the encrypted handshake response.
	HandshakeHeaderSize = 11

	// HandshakePadTail is the trailing padding after pub_hex.
	HandshakePadTail = 2
)

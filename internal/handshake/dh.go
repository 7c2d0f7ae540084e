// Package handshake implements the Diffie-Hellman exchange and
// key derivation of §4.3, and the wire layout of the handshake
// packet itself.
package handshake

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// groupPHex is the fixed 1024-bit MODP prime distributed with the
// server and client alike. It is not a secret.
const groupPHex = "" +
	"F3B60EA03B9813B2A97DD87C8159B1A6C53BC88E25E9D9F" +
	"262DBEA687B52DBB92E5C5C84379FABF08B2C925573D640" +
	"DAD7BFBAD57128E8DFE34EEE3F4096B441DA81237749E24" +
	"FF98DEFE8C28D7DAAA8C58B04C6B01A462B8A7D52E1BD715" +
	"40AFE3A2CCD5FD31FBC5EC7C82AA4881C1C7DFE486AEEB30" +
	"61A2AE319B8CEBE88AB"

// PrivateExponentBits is the width of the server's pseudo-random
// private exponent.
const PrivateExponentBits = 256

var groupP *big.Int
var groupG = big.NewInt(2)

func init() {
	p, ok := new(big.Int).SetString(groupPHex, 16)
	if !ok {
		panic("handshake: malformed DH group constant")
	}
	groupP = p
}

// Group returns the fixed DH group constants, carried verbatim.
func Group() (p, g *big.Int) {
	return new(big.Int).Set(groupP), new(big.Int).Set(groupG)
}

// GeneratePrivate produces a 256-bit pseudo-random private exponent.
func GeneratePrivate() (*big.Int, error) {
	max := new(big.Int).Lsh(big.NewInt(1), PrivateExponentBits)
	return rand.Int(rand.Reader, max)
}

// PublicKey computes g^priv mod p.
func PublicKey(priv *big.Int) *big.Int {
	return new(big.Int).Exp(groupG, priv, groupP)
}

// SharedSecret computes peerPub^priv mod p.
func SharedSecret(peerPub, priv *big.Int) *big.Int {
	return new(big.Int).Exp(peerPub, priv, groupP)
}

// DeriveKey implements the symmetric key derivation of §4.3:
//
//	raw   = big-endian bytes of shared_secret truncated at the first 0x00
//	h1    = MD5(raw)
//	hex1  = lowercase hex ASCII of h1
//	h2    = MD5(ascii(hex1 ++ hex1))
//	hex2  = lowercase hex ASCII of h2
//	key   = ascii(hex1 ++ hex2)   (64 bytes; first 16 used by the block cipher)
func DeriveKey(shared *big.Int) []byte {
	raw := shared.Bytes()
	if i := indexZero(raw); i >= 0 {
		raw = raw[:i]
	}

	h1 := md5.Sum(raw)
	hex1 := hex.EncodeToString(h1[:])

	h2 := md5.Sum([]byte(hex1 + hex1))
	hex2 := hex.EncodeToString(h2[:])

	return []byte(hex1 + hex2)
}

func indexZero(b []byte) int {
	for i, v := range b {
		if v == 0x00 {
			return i
		}
	}
	return -1
}

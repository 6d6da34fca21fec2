package presale

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Storage addresses are derived deterministically from a fixed tag, a single
// underscore delimiter and the entity's key, byte-exact. The presale singleton
// lives under a fixed, key-independent address.
var (
	iterationTag    = []byte("ITERATION")
	buyerTag        = []byte("BUYER")
	adviserTag      = []byte("ADVISER")
	tagDelimiter    = []byte("_")
	presaleStateKey = []byte("PRESALE")
)

func iterationKey(id int16) []byte {
	var encoded [2]byte
	binary.LittleEndian.PutUint16(encoded[:], uint16(id))
	buf := make([]byte, 0, len(iterationTag)+1+2)
	buf = append(buf, iterationTag...)
	buf = append(buf, tagDelimiter...)
	buf = append(buf, encoded[:]...)
	return buf
}

func buyerKey(owner [20]byte) []byte {
	buf := make([]byte, 0, len(buyerTag)+1+len(owner))
	buf = append(buf, buyerTag...)
	buf = append(buf, tagDelimiter...)
	buf = append(buf, owner[:]...)
	return buf
}

func adviserKey(code string) []byte {
	buf := make([]byte, 0, len(adviserTag)+1+len(code))
	buf = append(buf, adviserTag...)
	buf = append(buf, tagDelimiter...)
	buf = append(buf, code...)
	return buf
}

// AdviserEscrowAddress derives the account that holds an adviser's escrowed
// currency commissions. The address is bound to the adviser's storage key so
// every code owns exactly one escrow account.
func AdviserEscrowAddress(code string) [20]byte {
	digest := ethcrypto.Keccak256(adviserKey(code))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

package lottery

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"
)

// Keep this domain stable; it is part of the consensus-critical selection.
const winnerDomain = "lottery/v1/winner"

// Entropy is the block-level input to winner selection.
//
// Security note: every field is known to (or chosen by) the block proposer,
// so a proposer can bias or predict the outcome. Selection is a plain hash
// reduced modulo the number of entries, not a randomness beacon.
type Entropy struct {
	Height    int64
	Time      time.Time
	BlockHash []byte
	Proposer  []byte
}

// Seed returns keccak256 over the domain and the length-prefixed block fields
// followed by every entry in order.
func (e Entropy) Seed(players []string) [32]byte {
	var h8 [8]byte
	var t8 [8]byte
	binary.BigEndian.PutUint64(h8[:], uint64(e.Height))
	binary.BigEndian.PutUint64(t8[:], uint64(e.Time.UnixNano()))

	parts := [][]byte{h8[:], t8[:], e.BlockHash, e.Proposer}
	for _, p := range players {
		parts = append(parts, []byte(p))
	}
	return keccakDomain(winnerDomain, parts...)
}

// WinnerIndex maps the seed onto [0, len(players)).
func (e Entropy) WinnerIndex(players []string) (int, error) {
	if len(players) == 0 {
		return 0, fmt.Errorf("no players to select from")
	}
	seed := e.Seed(players)
	n := new(big.Int).SetBytes(seed[:])
	n.Mod(n, big.NewInt(int64(len(players))))
	return int(n.Int64()), nil
}

func keccakDomain(domain string, parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(domain))

	// Length-prefix each part to avoid ambiguous concatenations.
	var lenBuf [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

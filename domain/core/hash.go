package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// PopulationHash is the content hash of an employee collection. Record order
// is significant because duplicate names resolve to the first occurrence.
type PopulationHash Hash

func (h PopulationHash) String() string { return Hash(h).String() }
func (h PopulationHash) Short() string  { return Hash(h).Short() }

// HashFields is one record's worth of fields fed into a population hash.
type HashFields interface {
	HashFields() []string
}

// ComputePopulationHash hashes every record field in order. Fields are length
// prefixed so that ("ab","c") and ("a","bc") never collide.
func ComputePopulationHash[T HashFields](records []T) PopulationHash {
	var data strings.Builder
	data.WriteString(strconv.Itoa(len(records)))
	for _, r := range records {
		data.WriteByte('|')
		for _, f := range r.HashFields() {
			data.WriteString(strconv.Itoa(len(f)))
			data.WriteByte(':')
			data.WriteString(f)
		}
	}
	return PopulationHash(NewHash([]byte(data.String())))
}

// Package idhash generates the opaque ids used for playlists and
// subscriptions.
package idhash

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/jxskiss/base62"
)

// Hash returns a base62-encoded id derived from the sha256 of a string.
// Stable: the same input always yields the same id.
func Hash(s string) string {
	return HashBytes([]byte(s))
}

// HashBytes returns a base62-encoded id derived from the sha256 of bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return base62.StdEncoding.EncodeToString(sum[:16])
}

// NewRandomID generates a random base62-encoded id.
func NewRandomID() string {
	var r [16]byte
	if _, err := rand.Read(r[:]); err != nil {
		panic(err)
	}
	return base62.StdEncoding.EncodeToString(r[:])
}

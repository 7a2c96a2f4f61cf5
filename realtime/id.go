package realtime

import (
	"crypto/rand"
	"encoding/hex"
)

// NewChannelID returns a random hex channel identifier.
func NewChannelID() string {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

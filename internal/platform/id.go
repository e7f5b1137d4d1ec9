package platform

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const handleAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const handleLength = 10

func NewID() string {
	return uuid.New().String()
}

// NewSecret generates a random hex secret of n bytes, e.g. webhook secrets.
func NewSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// NewHandle generates a short random name with a prefix, used when a
// registering agent does not pick its own name.
func NewHandle(prefix string) string {
	b := make([]byte, handleLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = handleAlphabet[b[i]%byte(len(handleAlphabet))]
	}
	return prefix + string(b)
}

package services

import (
	"crypto/rand"
	"math/big"
)

// Charset leaves out 0/O, 1/l/I to spare operators reading passwords over
// the phone to teachers.
const passwordCharset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CredentialGenerator produces fixed-length temporary passwords from a
// cryptographically secure source.
type CredentialGenerator struct {
	length int
}

func NewCredentialGenerator(length int) *CredentialGenerator {
	return &CredentialGenerator{length: length}
}

func (g *CredentialGenerator) TempPassword() (string, error) {
	out := make([]byte, g.length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}

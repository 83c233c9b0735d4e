package domain

import (
	"bytes"
	"crypto"
	"crypto/x509"
)

// SigningConfiguration is an opaque signing identity: a private key plus its
// certificate chain. At most one main identity and one stamp identity are
// active per build.
type SigningConfiguration struct {
	PrivateKey   crypto.PrivateKey
	Certificates []*x509.Certificate
}

// Equal compares two signing configurations by key and certificate material.
func (c SigningConfiguration) Equal(other SigningConfiguration) bool {
	if len(c.Certificates) != len(other.Certificates) {
		return false
	}
	for i := range c.Certificates {
		if !bytes.Equal(c.Certificates[i].Raw, other.Certificates[i].Raw) {
			return false
		}
	}
	type equaler interface {
		Equal(x crypto.PrivateKey) bool
	}
	if key, ok := c.PrivateKey.(equaler); ok {
		return key.Equal(other.PrivateKey)
	}
	return c.PrivateKey == other.PrivateKey
}

// SourceStamp is the optional provenance signature applied alongside the main
// package signature.
type SourceStamp struct {
	SigningConfiguration SigningConfiguration

	// Source optionally records where the build originated, e.g. a CI URL.
	Source string
}

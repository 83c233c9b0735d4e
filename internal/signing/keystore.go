package signing

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aabtools/apkset/internal/domain"
)

// KeystoreReference identifies one key inside a keystore: the store location,
// the alias of the key within it, and the passwords guarding both.
type KeystoreReference struct {
	Path             string
	Alias            string
	KeystorePassword Password
	KeyPassword      Password
}

// KeystoreReader loads signing identities from keystore material. A reader
// returns a clearly typed failure when the reference cannot be resolved; it
// never fabricates an identity.
type KeystoreReader interface {
	ReadKey(ref KeystoreReference) (domain.SigningConfiguration, error)
}

// PEMKeystoreReader reads keys from a directory-style keystore where each
// alias is a PEM file named "<alias>.pem" holding a PKCS#8 private key block
// followed by the certificate chain.
type PEMKeystoreReader struct{}

func (PEMKeystoreReader) ReadKey(ref KeystoreReference) (domain.SigningConfiguration, error) {
	data, err := os.ReadFile(keyFilePath(ref.Path, ref.Alias))
	if err != nil {
		return domain.SigningConfiguration{}, fmt.Errorf("key %q not found in keystore %s: %w", ref.Alias, ref.Path, err)
	}

	var config domain.SigningConfiguration
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return domain.SigningConfiguration{}, fmt.Errorf("failed to parse private key for alias %q: %w", ref.Alias, err)
			}
			config.PrivateKey = key
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return domain.SigningConfiguration{}, fmt.Errorf("failed to parse certificate for alias %q: %w", ref.Alias, err)
			}
			config.Certificates = append(config.Certificates, cert)
		}
	}

	if config.PrivateKey == nil {
		return domain.SigningConfiguration{}, fmt.Errorf("no private key found for alias %q in keystore %s", ref.Alias, ref.Path)
	}
	if len(config.Certificates) == 0 {
		return domain.SigningConfiguration{}, fmt.Errorf("no certificate found for alias %q in keystore %s", ref.Alias, ref.Path)
	}
	return config, nil
}

func keyFilePath(keystorePath, alias string) string {
	info, err := os.Stat(keystorePath)
	if err == nil && info.IsDir() {
		return filepath.Join(keystorePath, alias+".pem")
	}
	// A plain file keystore holds a single alias.
	return keystorePath
}

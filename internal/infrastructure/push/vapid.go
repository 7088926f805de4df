package push

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// VAPIDKeys is the server's application key pair, base64url encoded without
// padding as push services expect.
type VAPIDKeys struct {
	PrivateKey string
	PublicKey  string
}

var errEmptyKeyFile = errors.New("vapid key file is empty")

// LoadVAPIDKeys reads the private key from path and derives the public key.
// The file holds either the raw 32-byte P-256 scalar in base64url (as
// produced by webpush.GenerateVAPIDKeys) or a PEM encoded EC private key.
func LoadVAPIDKeys(path string) (VAPIDKeys, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("read vapid key: %w", err)
	}
	return ParseVAPIDPrivateKey(raw)
}

// ParseVAPIDPrivateKey accepts the same formats as LoadVAPIDKeys.
func ParseVAPIDPrivateKey(raw []byte) (VAPIDKeys, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return VAPIDKeys{}, errEmptyKeyFile
	}

	var scalar []byte
	if strings.HasPrefix(text, "-----BEGIN") {
		d, err := scalarFromPEM([]byte(text))
		if err != nil {
			return VAPIDKeys{}, err
		}
		scalar = d
	} else {
		d, err := decodeBase64(text)
		if err != nil {
			return VAPIDKeys{}, fmt.Errorf("decode vapid key: %w", err)
		}
		scalar = d
	}

	priv, err := ecdh.P256().NewPrivateKey(scalar)
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("parse vapid key: %w", err)
	}

	return VAPIDKeys{
		PrivateKey: base64.RawURLEncoding.EncodeToString(scalar),
		PublicKey:  base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
	}, nil
}

func scalarFromPEM(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("parse vapid key: no PEM block")
	}

	var key *ecdsa.PrivateKey
	if k, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		key = k
	} else if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ec, ok := k.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("parse vapid key: not an EC key")
		}
		key = ec
	} else {
		return nil, fmt.Errorf("parse vapid key: %w", err)
	}

	ek, err := key.ECDH()
	if err != nil {
		return nil, fmt.Errorf("parse vapid key: %w", err)
	}
	return ek.Bytes(), nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

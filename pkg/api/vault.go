package api

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Vault encrypts instance credentials before they hit the local store and
// decrypts them when building remote connections. Tokens look like
// "hex(iv):hex(ciphertext)"; anything that does not match that shape is
// treated as a legacy plaintext secret and passed through untouched.
type Vault struct {
	key []byte
}

func NewVault(key string) (*Vault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &Vault{key: []byte(key)}, nil
}

// Encrypt returns a storable token for secret. An empty secret stays empty.
func (v *Vault) Encrypt(secret string) (string, error) {
	if secret == "" {
		return "", nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher block: %w", err)
	}

	msg := pad([]byte(secret), aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(msg, msg)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(msg), nil
}

// Decrypt never fails. A malformed token is assumed to be a legacy plaintext
// password; a token that parses but will not decrypt (retired key, corrupted
// ciphertext) is passed through verbatim, which downstream turns into a
// connection failure rather than a crash.
func (v *Vault) Decrypt(token string) string {
	if token == "" {
		return ""
	}

	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return token
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return token
	}

	msg, err := hex.DecodeString(parts[1])
	if err != nil || len(msg) == 0 || len(msg)%aes.BlockSize != 0 {
		return token
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return token
	}

	cipher.NewCBCDecrypter(block, iv).CryptBlocks(msg, msg)

	secret, err := unpad(msg, aes.BlockSize)
	if err != nil {
		log.Printf("vault: token in encrypted format did not decrypt cleanly, passing through as legacy secret")
		return token
	}

	return string(secret)
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}

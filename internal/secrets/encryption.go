// Package secrets encrypts broker credentials at rest. The ciphertext format
// is hex(iv):hex(body), AES-256-CBC with PKCS#7 padding, keyed by the SHA-256
// digest of the configured passphrase.
package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Cipher encrypts and decrypts credential strings. The passphrase is injected
// at construction; there is no hidden environment lookup.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES-256 key from the configured passphrase.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase must not be empty")
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Cipher{key: sum[:]}, nil
}

// Encrypt returns plaintext encrypted under a fresh random IV.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("could not create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("could not generate IV: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	body := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(body), nil
}

// Decrypt reverses Encrypt. It fails on any malformed ciphertext rather than
// returning garbage.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", errors.New("invalid ciphertext format")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", errors.New("invalid ciphertext IV")
	}

	body, err := hex.DecodeString(parts[1])
	if err != nil || len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return "", errors.New("invalid ciphertext body")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("could not create cipher: %w", err)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid ciphertext padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid ciphertext padding")
		}
	}
	return data[:len(data)-n], nil
}

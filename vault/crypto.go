// Package vault encrypts private notes with a key derived from a password that
// only ever lives in session memory.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize      = 16
	KeySize       = 32
	KDFIterations = 390000
)

// checkPlaintext is sealed under the key on first unlock so later unlocks can
// tell a wrong password apart before any note is written with it.
const checkPlaintext = "clinicalai vault check v1"

// ErrDecryption covers both a wrong password and tampered ciphertext; GCM cannot tell them apart.
var ErrDecryption = errors.New("vault: unable to decrypt")

func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: reading salt: %w", err)
	}
	return salt, nil
}

func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New)
}

// Encrypt seals plaintext with AES-GCM and returns base64(nonce || ciphertext).
func Encrypt(key []byte, plaintext string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: reading nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func Decrypt(key []byte, ciphertext string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryption
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrDecryption
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return cipher.NewGCM(block)
}

// NewCheck seals a known value under key, for storing next to the salt.
func NewCheck(key []byte) (string, error) {
	return Encrypt(key, checkPlaintext)
}

// VerifyCheck reports ErrDecryption unless check was made by NewCheck with the same key.
func VerifyCheck(key []byte, check string) error {
	plaintext, err := Decrypt(key, check)
	if err != nil {
		return err
	}
	if plaintext != checkPlaintext {
		return ErrDecryption
	}
	return nil
}

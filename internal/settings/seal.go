package settings

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// SealedPrefix marks an encrypted value in the settings file.
const SealedPrefix = "sealed:"

const kdfSalt = "e2egen-settings"

var (
	ErrNoSecret   = errors.New("settings: sealed value but no secret configured")
	ErrOpenFailed = errors.New("settings: sealed value could not be opened")
)

// deriveKey derives the per-caller box key: HKDF-SHA256(secret, salt, info=callerID).
func deriveKey(secret []byte, callerID string) (*[32]byte, error) {
	r := hkdf.New(sha256.New, secret, []byte(kdfSalt), []byte(callerID))
	var key [32]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, fmt.Errorf("settings: derive key: %w", err)
	}
	return &key, nil
}

// Seal encrypts plaintext for callerID and returns a "sealed:" value.
func Seal(secret []byte, callerID, plaintext string) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	key, err := deriveKey(secret, callerID)
	if err != nil {
		return "", err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("settings: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return SealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal. Values without the prefix are
// returned unchanged.
func Open(secret []byte, callerID, value string) (string, error) {
	if !strings.HasPrefix(value, SealedPrefix) {
		return value, nil
	}
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrOpenFailed
	}
	key, err := deriveKey(secret, callerID)
	if err != nil {
		return "", err
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}

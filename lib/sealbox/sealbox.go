// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of the derived symmetric key.
const KeySize = chacha20poly1305.KeySize

// BlobVersion prefixes every sealed blob and is authenticated.
const BlobVersion byte = 0x01

// BlobOverhead is version + nonce + tag.
const BlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfo separates this derivation from any other use of the
// machine identifier. Changing it orphans every sealed config.
var hkdfInfo = []byte("cppticketer.config.v1")

// ErrNotSealed is returned by OpenText when the input is not base64
// or too short to be a blob. The config loader treats it the same as
// an authentication failure.
var ErrNotSealed = errors.New("sealbox: input is not a sealed blob")

// Box seals and opens blobs under one derived key.
type Box struct {
	key [KeySize]byte
}

// New derives a Box from a machine identifier. The identifier is
// whitespace-trimmed before hashing so a trailing newline in
// /etc/machine-id does not change the key.
func New(machineID string) (*Box, error) {
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		return nil, fmt.Errorf("sealbox: machine identifier is empty")
	}

	digest := blake3.Sum256([]byte(machineID))
	reader := hkdf.New(sha256.New, digest[:], nil, hkdfInfo)

	box := &Box{}
	if _, err := io.ReadFull(reader, box.key[:]); err != nil {
		return nil, fmt.Errorf("sealbox: deriving key: %w", err)
	}
	return box, nil
}

// Seal encrypts plaintext into a versioned blob.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("sealbox: creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("sealbox: generating nonce: %w", err)
	}

	output := make([]byte, 1+len(nonce), BlobOverhead+len(plaintext))
	output[0] = BlobVersion
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, []byte{BlobVersion}), nil
}

// Open authenticates and decrypts a blob produced by Seal.
func (b *Box) Open(blob []byte) ([]byte, error) {
	if len(blob) < BlobOverhead {
		return nil, fmt.Errorf("sealbox: blob is %d bytes, minimum is %d: %w", len(blob), BlobOverhead, ErrNotSealed)
	}
	if blob[0] != BlobVersion {
		return nil, fmt.Errorf("sealbox: blob version %d is not supported (expected %d)", blob[0], BlobVersion)
	}

	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("sealbox: creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSizeX:], blob[:1])
	if err != nil {
		return nil, fmt.Errorf("sealbox: authentication failed (wrong machine key or tampered data): %w", err)
	}
	return plaintext, nil
}

// SealText seals plaintext and returns base64 text.
func (b *Box) SealText(plaintext []byte) (string, error) {
	blob, err := b.Seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// OpenText reverses SealText.
func (b *Box) OpenText(text string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSealed, err)
	}
	return b.Open(blob)
}

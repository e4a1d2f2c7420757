// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealbox encrypts small documents at rest under a key bound
// to the local machine.
//
// The key is derived with HKDF-SHA256 from a BLAKE3 digest of the
// machine identifier, so a sealed config file only opens on the host
// that wrote it. Blobs use XChaCha20-Poly1305 with a random nonce:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes] [Ciphertext+Tag: N+16 bytes]
//
// The version byte is authenticated as additional data. SealText and
// OpenText wrap the blob in standard base64 so it can live in a text
// file.
package sealbox

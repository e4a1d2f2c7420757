// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

// maxDecompressedSize bounds a decoded snapshot.
const maxDecompressedSize = 64 << 20

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecompressedSize))
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// MarshalCompressed encodes v as CBOR and compresses it with zstd.
func MarshalCompressed(v any) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// UnmarshalCompressed reverses MarshalCompressed.
func UnmarshalCompressed(blob []byte, v any) error {
	data, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("codec: decompressing: %w", err)
	}
	return Unmarshal(data, v)
}

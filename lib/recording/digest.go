// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashFile computes the BLAKE3 digest of the file at path, streamed in
// chunks so memory stays constant regardless of file size. The digest
// identifies the recording as stored — compressed recordings hash in
// their compressed form.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex encoding of a recording digest.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

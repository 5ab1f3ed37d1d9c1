// Package bytecodec holds the byte-level primitives shared by the keystore
// format: strict hex conversion and cryptographically secure random bytes.
package bytecodec

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

// FromHex decodes a hex string into bytes. A leading "0x" or "0X" prefix is
// accepted and stripped; anything else non-hex is rejected.
func FromHex(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return b, nil
}

// ToHex encodes bytes as lowercase hex without a prefix, the wire form used
// inside keystore records.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// To0xHex encodes bytes as lowercase hex with the conventional "0x" prefix
// used for values handed back to callers.
func To0xHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// Random returns n bytes from the system CSPRNG.
func Random(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("random bytes: %w", err)
	}
	return buf, nil
}

// Zero overwrites b in place. Callers use it to scrub key material once a
// secret leaves scope.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

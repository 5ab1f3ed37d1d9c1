package bytecodec

import (
	"bytes"
	"errors"
	"testing"
)

func TestFromHex(t *testing.T) {
	for _, input := range []string{"0a0b0c", "0x0a0b0c", "0X0a0b0c"} {
		got, err := FromHex(input)
		if err != nil {
			t.Fatalf("decode %q failed: %v", input, err)
		}
		if !bytes.Equal(got, []byte{0x0a, 0x0b, 0x0c}) {
			t.Fatalf("unexpected bytes for %q: %x", input, got)
		}
	}
	if _, err := FromHex("zz"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
	if _, err := FromHex("abc"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("odd-length hex must be rejected, got %v", err)
	}
	empty, err := FromHex("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty string must decode to empty bytes: %x, %v", empty, err)
	}
}

func TestToHexLowercaseUnprefixed(t *testing.T) {
	if got := ToHex([]byte{0xDE, 0xAD}); got != "dead" {
		t.Fatalf("unexpected hex: %s", got)
	}
	if got := To0xHex([]byte{0xDE, 0xAD}); got != "0xdead" {
		t.Fatalf("unexpected prefixed hex: %s", got)
	}
}

func TestRandomDistinct(t *testing.T) {
	a, err := Random(32)
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	b, err := Random(32)
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two random draws collided")
	}
}

func TestZero(t *testing.T) {
	buf := []byte{1, 2, 3}
	Zero(buf)
	if !bytes.Equal(buf, []byte{0, 0, 0}) {
		t.Fatalf("buffer not scrubbed: %x", buf)
	}
}

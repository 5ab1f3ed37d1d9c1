// Package privacylog keeps passwords, key material and raw keystore
// identifiers out of structured logs. Sensitive attributes are replaced with
// a redaction marker; identifiers are replaced with a per-boot fingerprint so
// log lines stay correlatable without being linkable across restarts.
package privacylog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"

	"ether-vault/go-keystore/internal/bytecodec"
)

const redactedValue = "[REDACTED]"

var (
	bootNonce         = randomNonce()
	fingerprintedKeys = map[string]struct{}{
		"keystore_id": {},
		"record_id":   {},
		"vault_entry": {},
	}
	sensitiveKeyParts = []string{
		"password", "passphrase", "secret", "token", "authorization",
		"mnemonic", "material", "private_key", "plaintext",
	}
)

type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, SanitizeAttr(attr))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(out)}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	lowerKey := strings.ToLower(key)
	if isSensitiveKey(lowerKey) {
		return slog.String(key, redactedValue)
	}
	if _, ok := fingerprintedKeys[lowerKey]; ok {
		return slog.String(key+"_fp", Fingerprint(attr.Value.String()))
	}
	return attr
}

// Fingerprint maps an identifier to a short stable-for-this-process tag:
// base58 of the first 8 bytes of blake2b-256 over value and the boot nonce.
func Fingerprint(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(trimmed + "|" + bootNonce))
	return "fp_" + base58.Encode(sum[:8])
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func randomNonce() string {
	buf, err := bytecodec.Random(16)
	if err != nil {
		return "fallback_nonce"
	}
	return fmt.Sprintf("%x", buf)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"ether-vault/go-keystore/pkg/keystore"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.KDF.Default != keystore.KDFScrypt {
		t.Fatalf("unexpected default kdf: %s", cfg.KDF.Default)
	}
	if cfg.KDF.Iterations != keystore.DefaultIterations || cfg.KDF.ScryptCost != keystore.DefaultScryptN {
		t.Fatalf("unexpected default cost parameters: %+v", cfg.KDF)
	}
	if cfg.Vault.Backend != "file" {
		t.Fatalf("unexpected default vault backend: %s", cfg.Vault.Backend)
	}
	if !cfg.MetricsEnabled() {
		t.Fatalf("metrics should default to enabled")
	}
}

func TestLoadFromPathMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "kdf:\n  default: pbkdf2\n  iterations: 4096\nvault:\n  dir: /tmp/vault-test\nrpc:\n  addr: 127.0.0.1:9999\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.KDF.Default != keystore.KDFPbkdf2 {
		t.Fatalf("kdf not merged: %s", cfg.KDF.Default)
	}
	if cfg.KDF.Iterations != 4096 {
		t.Fatalf("iterations not merged: %d", cfg.KDF.Iterations)
	}
	if cfg.KDF.ScryptCost != keystore.DefaultScryptN {
		t.Fatalf("unset field must keep default: %d", cfg.KDF.ScryptCost)
	}
	if cfg.Vault.Dir != "/tmp/vault-test" {
		t.Fatalf("vault dir not merged: %s", cfg.Vault.Dir)
	}
	if cfg.RPC.Addr != "127.0.0.1:9999" {
		t.Fatalf("rpc addr not merged: %s", cfg.RPC.Addr)
	}
}

func TestLoadFromPathMissingFileFallsBack(t *testing.T) {
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.KDF.Default != keystore.KDFScrypt {
		t.Fatalf("missing config must fall back to defaults: %s", cfg.KDF.Default)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EVAULT_KDF", "pbkdf2")
	t.Setenv("EVAULT_KDF_ITERATIONS", "8192")
	t.Setenv("EVAULT_VAULT_BACKEND", "keyring")
	t.Setenv("EVAULT_RPC_TOKEN", "sekrit")

	cfg := Default()
	ApplyEnvOverrides(&cfg)
	if cfg.KDF.Default != "pbkdf2" || cfg.KDF.Iterations != 8192 {
		t.Fatalf("kdf env overrides not applied: %+v", cfg.KDF)
	}
	if cfg.Vault.Backend != "keyring" {
		t.Fatalf("vault env override not applied: %s", cfg.Vault.Backend)
	}
	if cfg.RPC.Token != "sekrit" {
		t.Fatalf("token env override not applied")
	}
}

func TestApplyEnvOverridesIgnoresGarbage(t *testing.T) {
	t.Setenv("EVAULT_KDF_ITERATIONS", "not-a-number")
	t.Setenv("EVAULT_KDF_SCRYPT_COST", "-5")

	cfg := Default()
	ApplyEnvOverrides(&cfg)
	if cfg.KDF.Iterations != keystore.DefaultIterations {
		t.Fatalf("garbage iterations must be ignored: %d", cfg.KDF.Iterations)
	}
	if cfg.KDF.ScryptCost != keystore.DefaultScryptN {
		t.Fatalf("garbage scrypt cost must be ignored: %d", cfg.KDF.ScryptCost)
	}
}

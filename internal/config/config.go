// Package config loads the daemon/CLI configuration: default KDF choice and
// cost parameters, vault location, and the RPC listener settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ether-vault/go-keystore/pkg/keystore"
)

type Config struct {
	KDF   KDFConfig   `yaml:"kdf"`
	Vault VaultConfig `yaml:"vault"`
	RPC   RPCConfig   `yaml:"rpc"`
}

type KDFConfig struct {
	// Default selects the KDF used when the caller does not ask for one:
	// "pbkdf2" or "scrypt".
	Default    string `yaml:"default"`
	Iterations int    `yaml:"iterations"`
	ScryptCost int    `yaml:"scryptCost"`
}

type VaultConfig struct {
	// Backend is "file" or "keyring".
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	// Service names the keyring collection when the keyring backend is used.
	Service string `yaml:"service"`
}

type RPCConfig struct {
	Addr           string `yaml:"addr"`
	Token          string `yaml:"token"`
	MetricsEnabled *bool  `yaml:"metricsEnabled"`
}

func Default() Config {
	return Config{
		KDF: KDFConfig{
			Default:    keystore.KDFScrypt,
			Iterations: keystore.DefaultIterations,
			ScryptCost: keystore.DefaultScryptN,
		},
		Vault: VaultConfig{
			Backend: "file",
			Dir:     defaultVaultDir(),
			Service: "ether-vault",
		},
		RPC: RPCConfig{
			Addr: "127.0.0.1:8679",
		},
	}
}

// LoadFromPath reads the first readable candidate config and merges it over
// the defaults; env overrides win last. A missing or unparsable file falls
// back to defaults rather than failing startup.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/config.yaml",
			"config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src Config) {
	if src.KDF.Default != "" {
		dst.KDF.Default = src.KDF.Default
	}
	if src.KDF.Iterations != 0 {
		dst.KDF.Iterations = src.KDF.Iterations
	}
	if src.KDF.ScryptCost != 0 {
		dst.KDF.ScryptCost = src.KDF.ScryptCost
	}
	if src.Vault.Backend != "" {
		dst.Vault.Backend = src.Vault.Backend
	}
	if src.Vault.Dir != "" {
		dst.Vault.Dir = src.Vault.Dir
	}
	if src.Vault.Service != "" {
		dst.Vault.Service = src.Vault.Service
	}
	if src.RPC.Addr != "" {
		dst.RPC.Addr = src.RPC.Addr
	}
	if src.RPC.Token != "" {
		dst.RPC.Token = src.RPC.Token
	}
	if src.RPC.MetricsEnabled != nil {
		dst.RPC.MetricsEnabled = src.RPC.MetricsEnabled
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if kdf := strings.TrimSpace(os.Getenv("EVAULT_KDF")); kdf != "" {
		cfg.KDF.Default = kdf
	}
	if raw := strings.TrimSpace(os.Getenv("EVAULT_KDF_ITERATIONS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.KDF.Iterations = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("EVAULT_KDF_SCRYPT_COST")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 1 {
			cfg.KDF.ScryptCost = parsed
		}
	}
	if dir := strings.TrimSpace(os.Getenv("EVAULT_VAULT_DIR")); dir != "" {
		cfg.Vault.Dir = dir
	}
	if backend := strings.TrimSpace(os.Getenv("EVAULT_VAULT_BACKEND")); backend != "" {
		cfg.Vault.Backend = backend
	}
	if token := strings.TrimSpace(os.Getenv("EVAULT_RPC_TOKEN")); token != "" {
		cfg.RPC.Token = token
	}
	if addr := strings.TrimSpace(os.Getenv("EVAULT_RPC_ADDR")); addr != "" {
		cfg.RPC.Addr = addr
	}
}

// MetricsEnabled defaults to true unless explicitly disabled.
func (c Config) MetricsEnabled() bool {
	if c.RPC.MetricsEnabled == nil {
		return true
	}
	return *c.RPC.MetricsEnabled
}

func defaultVaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vault"
	}
	return filepath.Join(home, ".ether-vault", "keystore")
}

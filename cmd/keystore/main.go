// Command keystore is the offline CLI: generate, encrypt, decrypt, inspect,
// and restore password-protected private key records without a daemon.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"ether-vault/go-keystore/internal/bytecodec"
	"ether-vault/go-keystore/internal/config"
	"ether-vault/go-keystore/internal/mnemonic"
	"ether-vault/go-keystore/internal/platform/privacylog"
	"ether-vault/go-keystore/internal/vault"
	"ether-vault/go-keystore/pkg/keystore"
)

const (
	exitOK           = 0
	exitInvalidInput = 10
	exitCryptoFailed = 20
	exitVaultFailed  = 30
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitInvalidInput)
	}

	switch os.Args[1] {
	case "new":
		runNew(os.Args[2:])
	case "encrypt":
		runEncrypt(os.Args[2:])
	case "decrypt":
		runDecrypt(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	default:
		printUsage()
		os.Exit(exitInvalidInput)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: keystore <command> [flags]

commands:
  new      generate a private key with a recovery phrase and encrypt it
  encrypt  encrypt an existing private key into a keystore record
  decrypt  recover the private key from a record
  inspect  show record metadata without decrypting
  restore  rebuild a record from a recovery phrase`)
}

func runNew(args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (optional)")
	password := fs.String("password", "", "encryption password")
	passwordFile := fs.String("password-file", "", "file containing the encryption password")
	kdf := fs.String("kdf", "", "kdf override: pbkdf2 | scrypt")
	save := fs.Bool("save", false, "store the record in the vault")
	if err := fs.Parse(args); err != nil {
		fail(err.Error(), exitInvalidInput)
	}
	cfg := config.LoadFromPath(*configPath)
	pw := resolvePassword(*password, *passwordFile)

	phrase, privateKey, err := mnemonic.NewPrivateKey()
	if err != nil {
		fail(err.Error(), exitCryptoFailed)
	}
	defer bytecodec.Zero(privateKey)

	ks := encryptKey(cfg, pw, *kdf, privateKey, "")
	out := map[string]any{
		"id":       ks.ID,
		"mnemonic": phrase,
		"record":   ks,
	}
	if *save {
		out["saved"] = saveRecord(cfg, ks)
	}
	printJSON(out)
}

func runEncrypt(args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (optional)")
	password := fs.String("password", "", "encryption password")
	passwordFile := fs.String("password-file", "", "file containing the encryption password")
	privateKeyHex := fs.String("private-key", "", "private key as hex (0x prefix optional)")
	kdf := fs.String("kdf", "", "kdf override: pbkdf2 | scrypt")
	id := fs.String("id", "", "record id (default: random uuid)")
	save := fs.Bool("save", false, "store the record in the vault")
	if err := fs.Parse(args); err != nil {
		fail(err.Error(), exitInvalidInput)
	}
	if *privateKeyHex == "" {
		fail("encrypt: -private-key is required", exitInvalidInput)
	}
	cfg := config.LoadFromPath(*configPath)
	pw := resolvePassword(*password, *passwordFile)

	privateKey, err := bytecodec.FromHex(*privateKeyHex)
	if err != nil {
		fail("encrypt: private key is not valid hex", exitInvalidInput)
	}
	defer bytecodec.Zero(privateKey)

	ks := encryptKey(cfg, pw, *kdf, privateKey, *id)
	out := map[string]any{"id": ks.ID, "record": ks}
	if *save {
		out["saved"] = saveRecord(cfg, ks)
	}
	printJSON(out)
}

func runDecrypt(args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (optional)")
	password := fs.String("password", "", "decryption password")
	passwordFile := fs.String("password-file", "", "file containing the decryption password")
	in := fs.String("in", "", "record file to decrypt")
	id := fs.String("id", "", "vault record id to decrypt")
	if err := fs.Parse(args); err != nil {
		fail(err.Error(), exitInvalidInput)
	}
	cfg := config.LoadFromPath(*configPath)
	pw := resolvePassword(*password, *passwordFile)

	ks := loadRecord(cfg, *in, *id)
	privateKey, err := keystore.DecryptWithPassword(ks, pw)
	if err != nil {
		fail("decrypt: "+err.Error(), exitCryptoFailed)
	}
	defer bytecodec.Zero(privateKey)
	printJSON(map[string]string{
		"id":          ks.ID,
		"private_key": bytecodec.To0xHex(privateKey),
	})
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (optional)")
	in := fs.String("in", "", "record file to inspect")
	id := fs.String("id", "", "vault record id to inspect")
	if err := fs.Parse(args); err != nil {
		fail(err.Error(), exitInvalidInput)
	}
	cfg := config.LoadFromPath(*configPath)

	ks := loadRecord(cfg, *in, *id)
	params := ks.KDF
	out := map[string]any{
		"id":              ks.ID,
		"version":         keystore.Version,
		"cipher":          keystore.CipherName,
		"kdf":             params.Func,
		"salt":            bytecodec.ToHex(params.Salt()),
		"iv":              bytecodec.ToHex(ks.IV),
		"mac_fingerprint": privacylog.Fingerprint(bytecodec.ToHex(ks.MAC)),
	}
	switch params.Func {
	case keystore.KDFPbkdf2:
		out["iterations"] = params.PBKDF2.C
	case keystore.KDFScrypt:
		out["n"] = params.Scrypt.N
		out["r"] = params.Scrypt.R
		out["p"] = params.Scrypt.P
	}
	printJSON(out)
}

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (optional)")
	password := fs.String("password", "", "encryption password")
	passwordFile := fs.String("password-file", "", "file containing the encryption password")
	phrase := fs.String("mnemonic", "", "recovery phrase")
	phraseFile := fs.String("mnemonic-file", "", "file containing the recovery phrase")
	kdf := fs.String("kdf", "", "kdf override: pbkdf2 | scrypt")
	save := fs.Bool("save", false, "store the record in the vault")
	if err := fs.Parse(args); err != nil {
		fail(err.Error(), exitInvalidInput)
	}
	cfg := config.LoadFromPath(*configPath)
	pw := resolvePassword(*password, *passwordFile)

	words := strings.TrimSpace(*phrase)
	if words == "" && *phraseFile != "" {
		data, err := os.ReadFile(*phraseFile)
		if err != nil {
			fail("restore: "+err.Error(), exitInvalidInput)
		}
		words = strings.TrimSpace(string(data))
	}
	privateKey, err := mnemonic.PrivateKeyFromMnemonic(words)
	if err != nil {
		fail("restore: "+err.Error(), exitInvalidInput)
	}
	defer bytecodec.Zero(privateKey)

	ks := encryptKey(cfg, pw, *kdf, privateKey, "")
	out := map[string]any{"id": ks.ID, "record": ks}
	if *save {
		out["saved"] = saveRecord(cfg, ks)
	}
	printJSON(out)
}

func encryptKey(cfg config.Config, password, kdf string, privateKey []byte, id string) *keystore.Keystore {
	key, err := deriveKey(cfg, password, kdf)
	if err != nil {
		fail(err.Error(), exitCryptoFailed)
	}
	defer key.Zero()

	var opts []keystore.EncryptOption
	if id != "" {
		opts = append(opts, keystore.WithID(id))
	}
	ks, err := keystore.Encrypt(privateKey, key, opts...)
	if err != nil {
		fail(err.Error(), exitCryptoFailed)
	}
	return ks
}

func deriveKey(cfg config.Config, password, kdf string) (*keystore.DerivedKey, error) {
	if kdf == "" {
		kdf = cfg.KDF.Default
	}
	switch kdf {
	case keystore.KDFPbkdf2:
		return keystore.DerivePBKDF2(password, keystore.WithIterations(cfg.KDF.Iterations))
	case "", keystore.KDFScrypt:
		return keystore.DeriveScrypt(password, keystore.WithCostFactor(cfg.KDF.ScryptCost))
	default:
		return nil, fmt.Errorf("unsupported kdf %q", kdf)
	}
}

func loadRecord(cfg config.Config, in, id string) *keystore.Keystore {
	if (in == "") == (id == "") {
		fail("exactly one of -in or -id is required", exitInvalidInput)
	}
	if in != "" {
		data, err := os.ReadFile(in)
		if err != nil {
			fail(err.Error(), exitInvalidInput)
		}
		ks, err := keystore.Parse(data)
		if err != nil {
			fail(err.Error(), exitInvalidInput)
		}
		return ks
	}
	store := openStore(cfg)
	ks, err := store.Open(id)
	if err != nil {
		fail(err.Error(), exitVaultFailed)
	}
	return ks
}

func saveRecord(cfg config.Config, ks *keystore.Keystore) map[string]any {
	store := openStore(cfg)
	entry, err := store.Save(ks)
	if err != nil {
		fail(err.Error(), exitVaultFailed)
	}
	return map[string]any{"name": entry.Name, "created_at": entry.CreatedAt}
}

func openStore(cfg config.Config) vault.Store {
	store, err := vault.NewStore(cfg.Vault.Backend, cfg.Vault.Dir, cfg.Vault.Service)
	if err != nil {
		fail(err.Error(), exitVaultFailed)
	}
	return store
}

func resolvePassword(password, passwordFile string) string {
	if password != "" {
		return password
	}
	if passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			fail(err.Error(), exitInvalidInput)
		}
		return strings.TrimRight(string(data), "\r\n")
	}
	if env := os.Getenv("EVAULT_PASSWORD"); env != "" {
		return env
	}
	fail("a password is required: -password, -password-file, or EVAULT_PASSWORD", exitInvalidInput)
	return ""
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(err.Error(), exitCryptoFailed)
	}
}

func fail(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

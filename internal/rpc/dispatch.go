package rpc

import (
	"encoding/json"
	"errors"
	"time"

	"ether-vault/go-keystore/internal/bytecodec"
	"ether-vault/go-keystore/internal/platform/metrics"
	"ether-vault/go-keystore/internal/platform/privacylog"
	"ether-vault/go-keystore/internal/vault"
	"ether-vault/go-keystore/pkg/keystore"
)

// RPC error codes beyond the JSON-RPC reserved range.
const (
	codeCorruptKeystore = -32001
	codeMalformedRecord = -32002
	codeInvalidLength   = -32003
	codeRecordNotFound  = -32010
	codeDuplicateRecord = -32011
	codeJobNotFound     = -32020
	codeServiceError    = -32000
)

func (s *Server) dispatchRPC(method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return map[string]string{"status": "ok"}, nil
	case "kdf_derive":
		return s.service.rpcDerive(rawParams)
	case "kdf_derive_start":
		return s.service.rpcDeriveStart(rawParams)
	case "kdf_derive_poll":
		return s.service.rpcDerivePoll(rawParams)
	case "keystore_encrypt":
		return s.service.rpcEncrypt(rawParams)
	case "keystore_decrypt":
		return s.service.rpcDecrypt(rawParams)
	case "vault_save":
		return s.service.rpcVaultSave(rawParams)
	case "vault_open":
		return s.service.rpcVaultOpen(rawParams)
	case "vault_list":
		return s.service.rpcVaultList()
	case "vault_delete":
		return s.service.rpcVaultDelete(rawParams)
	default:
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	}
}

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

func mapServiceError(err error) *rpcError {
	switch {
	case errors.Is(err, keystore.ErrCorruptKeystore):
		return &rpcError{Code: codeCorruptKeystore, Message: err.Error()}
	case errors.Is(err, keystore.ErrMalformedRecord):
		return &rpcError{Code: codeMalformedRecord, Message: err.Error()}
	case errors.Is(err, keystore.ErrInvalidLength):
		return &rpcError{Code: codeInvalidLength, Message: err.Error()}
	case errors.Is(err, vault.ErrRecordNotFound):
		return &rpcError{Code: codeRecordNotFound, Message: err.Error()}
	case errors.Is(err, vault.ErrDuplicateID):
		return &rpcError{Code: codeDuplicateRecord, Message: err.Error()}
	case errors.Is(err, ErrJobNotFound):
		return &rpcError{Code: codeJobNotFound, Message: err.Error()}
	default:
		return &rpcError{Code: codeServiceError, Message: err.Error()}
	}
}

type deriveParams struct {
	Password   string `json:"password"`
	KDF        string `json:"kdf"`
	Iterations int    `json:"iterations"`
	CostFactor int    `json:"cost_factor"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
}

func (p deriveParams) options(s *Service) ([]keystore.DeriveOption, error) {
	var salt, iv []byte
	var err error
	if p.Salt != "" {
		if salt, err = bytecodec.FromHex(p.Salt); err != nil {
			return nil, err
		}
	}
	if p.IV != "" {
		if iv, err = bytecodec.FromHex(p.IV); err != nil {
			return nil, err
		}
	}
	return s.deriveOptions(p.KDF, p.Iterations, p.CostFactor, salt, iv), nil
}

// keySummary describes a derived key without exposing its material. The
// fingerprint lets a client confirm two derivations agree.
func keySummary(kdf string, key *keystore.DerivedKey) map[string]any {
	return map[string]any{
		"kdf":                  kdf,
		"salt":                 bytecodec.ToHex(key.Params().Salt()),
		"iv":                   bytecodec.ToHex(key.IV()),
		"material_fingerprint": privacylog.Fingerprint(bytecodec.ToHex(key.Material())),
	}
}

func (s *Service) rpcDerive(rawParams json.RawMessage) (any, *rpcError) {
	var p deriveParams
	if err := json.Unmarshal(rawParams, &p); err != nil {
		return nil, rpcInvalidParams()
	}
	opts, err := p.options(s)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	started := time.Now()
	key, kdf, err := s.derive(p.Password, p.KDF, opts)
	if err != nil {
		return nil, mapServiceError(err)
	}
	defer key.Zero()
	metrics.ObserveDerive(kdf, started)

	result := keySummary(kdf, key)
	result["elapsed_ms"] = time.Since(started).Milliseconds()
	return result, nil
}

func (s *Service) rpcDeriveStart(rawParams json.RawMessage) (any, *rpcError) {
	var p deriveParams
	if err := json.Unmarshal(rawParams, &p); err != nil {
		return nil, rpcInvalidParams()
	}
	opts, err := p.options(s)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	jobID, kdf, err := s.startDerive(p.Password, p.KDF, opts)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return map[string]string{"job_id": jobID, "kdf": kdf}, nil
}

func (s *Service) rpcDerivePoll(rawParams json.RawMessage) (any, *rpcError) {
	var p struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rawParams, &p); err != nil || p.JobID == "" {
		return nil, rpcInvalidParams()
	}
	job, err := s.pollDerive(p.JobID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	if !job.done {
		return map[string]string{"status": "running"}, nil
	}
	if job.err != nil {
		return map[string]string{"status": "failed", "error": job.err.Error()}, nil
	}
	result := keySummary(job.kdf, job.key)
	result["status"] = "done"
	return result, nil
}

type encryptParams struct {
	deriveParams
	PrivateKey  string `json:"private_key"`
	DeriveJobID string `json:"derive_job_id"`
	ID          string `json:"id"`
}

func (s *Service) rpcEncrypt(rawParams json.RawMessage) (any, *rpcError) {
	var p encryptParams
	if err := json.Unmarshal(rawParams, &p); err != nil || p.PrivateKey == "" {
		return nil, rpcInvalidParams()
	}
	privateKey, err := bytecodec.FromHex(p.PrivateKey)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	defer bytecodec.Zero(privateKey)

	var key *keystore.DerivedKey
	var kdf string
	if p.DeriveJobID != "" {
		key, err = s.takeDeriveKey(p.DeriveJobID)
	} else {
		var opts []keystore.DeriveOption
		opts, err = p.options(s)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		started := time.Now()
		key, kdf, err = s.derive(p.Password, p.KDF, opts)
		if err == nil {
			metrics.ObserveDerive(kdf, started)
		}
	}
	if err != nil {
		metrics.KeystoreOps.WithLabelValues("encrypt", "error").Inc()
		return nil, mapServiceError(err)
	}
	defer key.Zero()

	var encOpts []keystore.EncryptOption
	if p.ID != "" {
		encOpts = append(encOpts, keystore.WithID(p.ID))
	}
	ks, err := keystore.Encrypt(privateKey, key, encOpts...)
	if err != nil {
		metrics.KeystoreOps.WithLabelValues("encrypt", "error").Inc()
		return nil, mapServiceError(err)
	}
	metrics.KeystoreOps.WithLabelValues("encrypt", "ok").Inc()
	return map[string]any{"record": ks}, nil
}

type decryptParams struct {
	Record   json.RawMessage `json:"record"`
	ID       string          `json:"id"`
	Password string          `json:"password"`
}

func (s *Service) rpcDecrypt(rawParams json.RawMessage) (any, *rpcError) {
	var p decryptParams
	if err := json.Unmarshal(rawParams, &p); err != nil {
		return nil, rpcInvalidParams()
	}
	if (len(p.Record) == 0) == (p.ID == "") {
		// Exactly one source: an inline record or a vault id.
		return nil, rpcInvalidParams()
	}

	var ks *keystore.Keystore
	var err error
	if len(p.Record) > 0 {
		ks, err = keystore.Parse(p.Record)
	} else {
		ks, err = s.store.Open(p.ID)
		metrics.VaultOps.WithLabelValues(s.cfg.Vault.Backend, "open").Inc()
	}
	if err != nil {
		metrics.KeystoreOps.WithLabelValues("decrypt", "error").Inc()
		return nil, mapServiceError(err)
	}

	privateKey, err := keystore.DecryptWithPassword(ks, p.Password)
	if err != nil {
		if errors.Is(err, keystore.ErrCorruptKeystore) {
			metrics.MACFailures.Inc()
		}
		metrics.KeystoreOps.WithLabelValues("decrypt", "error").Inc()
		return nil, mapServiceError(err)
	}
	defer bytecodec.Zero(privateKey)
	metrics.KeystoreOps.WithLabelValues("decrypt", "ok").Inc()
	return map[string]string{"private_key": bytecodec.To0xHex(privateKey)}, nil
}

func (s *Service) rpcVaultSave(rawParams json.RawMessage) (any, *rpcError) {
	var p struct {
		Record json.RawMessage `json:"record"`
	}
	if err := json.Unmarshal(rawParams, &p); err != nil || len(p.Record) == 0 {
		return nil, rpcInvalidParams()
	}
	ks, err := keystore.Parse(p.Record)
	if err != nil {
		return nil, mapServiceError(err)
	}
	entry, err := s.store.Save(ks)
	if err != nil {
		return nil, mapServiceError(err)
	}
	metrics.VaultOps.WithLabelValues(s.cfg.Vault.Backend, "save").Inc()
	return entryResult(entry), nil
}

func (s *Service) rpcVaultOpen(rawParams json.RawMessage) (any, *rpcError) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rawParams, &p); err != nil || p.ID == "" {
		return nil, rpcInvalidParams()
	}
	ks, err := s.store.Open(p.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	metrics.VaultOps.WithLabelValues(s.cfg.Vault.Backend, "open").Inc()
	return map[string]any{"record": ks}, nil
}

func (s *Service) rpcVaultList() (any, *rpcError) {
	entries, err := s.store.List()
	if err != nil {
		return nil, mapServiceError(err)
	}
	metrics.VaultOps.WithLabelValues(s.cfg.Vault.Backend, "list").Inc()
	results := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		results = append(results, entryResult(entry))
	}
	return map[string]any{"records": results}, nil
}

func (s *Service) rpcVaultDelete(rawParams json.RawMessage) (any, *rpcError) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rawParams, &p); err != nil || p.ID == "" {
		return nil, rpcInvalidParams()
	}
	if err := s.store.Delete(p.ID); err != nil {
		return nil, mapServiceError(err)
	}
	metrics.VaultOps.WithLabelValues(s.cfg.Vault.Backend, "delete").Inc()
	return map[string]bool{"deleted": true}, nil
}

func entryResult(entry vault.Entry) map[string]any {
	return map[string]any{
		"id":         entry.ID,
		"name":       entry.Name,
		"created_at": entry.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Package rpc exposes the keystore operations over a localhost JSON-RPC 2.0
// endpoint: blocking and job-based key derivation, encrypt/decrypt, and the
// vault surface. Auth is a shared token; request bodies are capped and
// per-client rate limited.
package rpc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ether-vault/go-keystore/internal/config"
	"ether-vault/go-keystore/internal/vault"
	"ether-vault/go-keystore/pkg/keystore"
)

var ErrJobNotFound = errors.New("derive job not found")

const deriveJobTTL = 10 * time.Minute

// Service holds the daemon state behind the RPC surface: configured KDF
// defaults, the record store, and in-flight derive jobs.
type Service struct {
	cfg   config.Config
	store vault.Store

	mu   sync.Mutex
	jobs map[string]*deriveJob
	now  func() time.Time
}

type deriveJob struct {
	kdf       string
	result    <-chan keystore.DeriveResult
	startedAt time.Time

	done bool
	key  *keystore.DerivedKey
	err  error
}

func NewService(cfg config.Config, store vault.Store) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		jobs:  make(map[string]*deriveJob),
		now:   time.Now,
	}
}

// derive runs the configured KDF synchronously. An empty kdf selects the
// configured default.
func (s *Service) derive(password, kdf string, opts []keystore.DeriveOption) (*keystore.DerivedKey, string, error) {
	kdf = s.resolveKDF(kdf)
	switch kdf {
	case keystore.KDFPbkdf2:
		key, err := keystore.DerivePBKDF2(password, opts...)
		return key, kdf, err
	case keystore.KDFScrypt:
		key, err := keystore.DeriveScrypt(password, opts...)
		return key, kdf, err
	default:
		return nil, kdf, fmt.Errorf("unsupported kdf %q", kdf)
	}
}

// startDerive launches a derive job and returns its id. The result is
// claimed later via pollDerive or consumed by keystore_encrypt.
func (s *Service) startDerive(password, kdf string, opts []keystore.DeriveOption) (string, string, error) {
	kdf = s.resolveKDF(kdf)
	var result <-chan keystore.DeriveResult
	switch kdf {
	case keystore.KDFPbkdf2:
		result = keystore.DerivePBKDF2Async(password, opts...)
	case keystore.KDFScrypt:
		result = keystore.DeriveScryptAsync(password, opts...)
	default:
		return "", kdf, fmt.Errorf("unsupported kdf %q", kdf)
	}

	jobID := uuid.New().String()
	s.mu.Lock()
	s.jobs[jobID] = &deriveJob{kdf: kdf, result: result, startedAt: s.now()}
	s.expireJobsLocked()
	s.mu.Unlock()
	return jobID, kdf, nil
}

// pollDerive reports job progress without blocking. The job stays registered
// after completion until it is taken or expires.
func (s *Service) pollDerive(jobID string) (*deriveJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	job.poll()
	return job, nil
}

// takeDeriveKey hands over a completed job's key and removes the job. The
// caller owns the key and must Zero it.
func (s *Service) takeDeriveKey(jobID string) (*keystore.DerivedKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	// Block until the job finishes; encrypt callers want the key, not progress.
	if !job.done {
		res := <-job.result
		job.done = true
		job.key, job.err = res.Key, res.Err
	}
	delete(s.jobs, jobID)
	if job.err != nil {
		return nil, job.err
	}
	return job.key, nil
}

func (j *deriveJob) poll() {
	if j.done {
		return
	}
	select {
	case res := <-j.result:
		j.done = true
		j.key, j.err = res.Key, res.Err
	default:
	}
}

func (s *Service) expireJobsLocked() {
	cutoff := s.now().Add(-deriveJobTTL)
	for id, job := range s.jobs {
		if job.startedAt.Before(cutoff) {
			if job.done && job.key != nil {
				job.key.Zero()
			}
			delete(s.jobs, id)
		}
	}
}

func (s *Service) resolveKDF(kdf string) string {
	if kdf == "" {
		kdf = s.cfg.KDF.Default
	}
	if kdf == "" {
		kdf = keystore.KDFScrypt
	}
	return kdf
}

// deriveOptions translates request fields into derive options, falling back
// to the configured costs.
func (s *Service) deriveOptions(kdf string, iterations, costFactor int, salt, iv []byte) []keystore.DeriveOption {
	opts := make([]keystore.DeriveOption, 0, 4)
	switch s.resolveKDF(kdf) {
	case keystore.KDFPbkdf2:
		if iterations <= 0 {
			iterations = s.cfg.KDF.Iterations
		}
		if iterations > 0 {
			opts = append(opts, keystore.WithIterations(iterations))
		}
	case keystore.KDFScrypt:
		if costFactor <= 1 {
			costFactor = s.cfg.KDF.ScryptCost
		}
		if costFactor > 1 {
			opts = append(opts, keystore.WithCostFactor(costFactor))
		}
	}
	if salt != nil {
		opts = append(opts, keystore.WithSalt(salt))
	}
	if iv != nil {
		opts = append(opts, keystore.WithIV(iv))
	}
	return opts
}

// Package metrics exposes the daemon's prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeriveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evault",
		Subsystem: "kdf",
		Name:      "derive_seconds",
		Help:      "Wall-clock duration of password key derivations.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"kdf"})

	MACFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evault",
		Subsystem: "keystore",
		Name:      "mac_failures_total",
		Help:      "Decrypt attempts rejected by MAC verification.",
	})

	KeystoreOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evault",
		Subsystem: "keystore",
		Name:      "operations_total",
		Help:      "Keystore encrypt/decrypt operations by outcome.",
	}, []string{"op", "outcome"})

	VaultOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evault",
		Subsystem: "vault",
		Name:      "operations_total",
		Help:      "Vault storage operations by backend.",
	}, []string{"backend", "op"})
)

func init() {
	prometheus.DefaultRegisterer.MustRegister(DeriveDuration, MACFailures, KeystoreOps, VaultOps)
}

// ObserveDerive records one derivation of the named kdf.
func ObserveDerive(kdf string, started time.Time) {
	DeriveDuration.WithLabelValues(kdf).Observe(time.Since(started).Seconds())
}

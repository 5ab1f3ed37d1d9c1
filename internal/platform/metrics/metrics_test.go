package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDerive(t *testing.T) {
	before := testutil.CollectAndCount(DeriveDuration)
	ObserveDerive("pbkdf2", time.Now().Add(-10*time.Millisecond))
	after := testutil.CollectAndCount(DeriveDuration)
	if after <= before {
		t.Fatalf("derive observation not recorded: %d -> %d", before, after)
	}
}

func TestCountersAdvance(t *testing.T) {
	before := testutil.ToFloat64(MACFailures)
	MACFailures.Inc()
	if got := testutil.ToFloat64(MACFailures); got != before+1 {
		t.Fatalf("mac failure counter did not advance: %f -> %f", before, got)
	}

	opBefore := testutil.ToFloat64(KeystoreOps.WithLabelValues("encrypt", "ok"))
	KeystoreOps.WithLabelValues("encrypt", "ok").Inc()
	if got := testutil.ToFloat64(KeystoreOps.WithLabelValues("encrypt", "ok")); got != opBefore+1 {
		t.Fatalf("keystore op counter did not advance")
	}
}

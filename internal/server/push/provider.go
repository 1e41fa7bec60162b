package push

import "context"

// CanonicalPair is a provider-reported registration id migration: future
// sends to Old should target New instead.
type CanonicalPair struct {
	Old string
	New string
}

// DeliveryReport is the provider's per-multicast feedback. Canonical and
// Invalid may both be non-empty on a partially failed send; partial failure
// is expected and not an error.
type DeliveryReport struct {
	Canonical []CanonicalPair
	Invalid   []string
}

// Provider multicasts one payload to a set of registration ids. A returned
// error means the transport itself failed and nothing useful was delivered.
type Provider interface {
	Multicast(ctx context.Context, regIDs []string, payload []byte) (*DeliveryReport, error)
}

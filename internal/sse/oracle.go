package sse

import "context"

// KeyStore is the external existence check backing the termination oracle.
type KeyStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Oracle decides whether a channel is done streaming. The decision is the
// absence of an external key derived from a configured prefix; with no
// prefix configured, a channel is never done.
type Oracle struct {
	prefix string
	store  KeyStore
}

func NewOracle(prefix string, store KeyStore) *Oracle {
	return &Oracle{prefix: prefix, store: store}
}

// Enabled reports whether termination checks are configured at all.
func (o *Oracle) Enabled() bool {
	return o.prefix != ""
}

// Done re-reads the external store on every call: key present means the
// channel is still streaming, key absent means done. Stale reads only delay
// termination by one poll interval.
func (o *Oracle) Done(ctx context.Context, channel string) (bool, error) {
	if !o.Enabled() {
		return false, nil
	}

	exists, err := o.store.Exists(ctx, o.prefix+channel)
	if err != nil {
		return false, err
	}

	return !exists, nil
}

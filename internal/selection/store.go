// Package selection persists the current team selection on the client
// device. The capability is optional: execution contexts without a local
// persistence surface pass a nil Store and skip persistence entirely.
package selection

// Store holds a single durable string value.
type Store interface {
	// Get returns the stored value, or false when nothing is stored.
	Get() (string, bool)
	// Put replaces the stored value.
	Put(value string) error
}

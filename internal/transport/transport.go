package transport

// Transport defines a generic interface for publishing status updates from
// the playback loop. Implementations must be safe for concurrent use and
// must not block the caller.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans a message out to several transports. The first error is
// returned after every transport has been tried.
type Multi []Transport

// Send implements Transport.
func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Transport.
func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Multi(nil)

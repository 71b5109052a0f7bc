package engine

// Notifier is a concurrency primitive for informing worker routines about
// the arrival of new work. It has a buffer size of one: the worker learns
// that work exists, but not how much, and drains the corresponding store
// itself. Notifications sent while the buffer is full are merged.
type Notifier struct {
	notifier chan struct{}
}

func NewNotifier() Notifier {
	return Notifier{
		notifier: make(chan struct{}, 1),
	}
}

// Notify lets the worker know that new work exists. Never blocks.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns the channel the worker should listen on.
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}

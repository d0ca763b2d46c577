package hotkey

// Hotkey delivers press and release edges of one global key combination.
// Edges are coalesced when the consumer falls behind.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

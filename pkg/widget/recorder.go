package widget

import "sync"

// Recorder is a Transport that keeps every batch it receives. It is used
// by tests and by headless runs that dump the scene state.
type Recorder struct {
	mu      sync.Mutex
	batches [][]Message
	Err     error // returned by Send when set
}

// Send records msgs as one batch.
func (r *Recorder) Send(msgs ...Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.batches = append(r.batches, append([]Message(nil), msgs...))
	return nil
}

// Batches returns the recorded batches in order.
func (r *Recorder) Batches() [][]Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]Message(nil), r.batches...)
}

// Messages returns every recorded message, flattened.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.batches = nil
	r.mu.Unlock()
}

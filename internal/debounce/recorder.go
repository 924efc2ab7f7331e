package debounce

import "sync"

// Recorder keeps every emission it receives, in order. Useful as a data
// listener in tests and tools.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
}

func NewRecorder() *Recorder { return &Recorder{} }

// Record is a Listener.
func (r *Recorder) Record(em Emission) {
	r.mu.Lock()
	r.emissions = append(r.emissions, em)
	r.mu.Unlock()
}

func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.emissions))
	copy(out, r.emissions)
	return out
}

// Payloads returns the recorded payloads in emission order.
func (r *Recorder) Payloads() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.emissions))
	for i, em := range r.emissions {
		out[i] = em.Payload
	}
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emissions)
}

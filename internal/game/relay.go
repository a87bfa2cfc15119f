package game

import (
	"io"
	"sync"
)

// Relay bridges a push-style byte producer (the media extractor) into a
// pull-style consumer (the playback pump). Writes are buffered without
// limit and become readable immediately; Finish propagates as io.EOF once
// the buffer drains. Clip lengths are capped upstream, so the unbounded
// buffer stays small in practice.
type Relay struct {
	mu       sync.Mutex
	cond     *sync.Cond
	chunks   [][]byte
	off      int // read offset into chunks[0]
	finished bool
}

// NewRelay creates an empty relay
func NewRelay() *Relay {
	r := &Relay{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Write buffers a chunk from the producer. It never blocks. Writing
// after Finish returns io.ErrClosedPipe.
func (r *Relay) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return 0, io.ErrClosedPipe
	}
	if len(p) > 0 {
		buf := make([]byte, len(p))
		copy(buf, p)
		r.chunks = append(r.chunks, buf)
		r.cond.Broadcast()
	}
	return len(p), nil
}

// Finish marks end of stream. Buffered data stays readable; readers get
// io.EOF after draining it. Finish is idempotent.
func (r *Relay) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
	r.cond.Broadcast()
}

// Close implements io.Closer for the producer side
func (r *Relay) Close() error {
	r.Finish()
	return nil
}

// Read blocks until buffered data or end of stream is available
func (r *Relay) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.chunks) == 0 && !r.finished {
		r.cond.Wait()
	}
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	head := r.chunks[0]
	n := copy(p, head[r.off:])
	r.off += n
	if r.off == len(head) {
		r.chunks = r.chunks[1:]
		r.off = 0
	}
	return n, nil
}

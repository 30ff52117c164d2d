package logging

import (
	"bytes"
	"sync"

	"github.com/tchow-twistedxcom/occtl/internal/fsutil"
)

// RingBuffer keeps the most recent complete log records within a byte
// budget. Records are newline-terminated; a trailing partial record is held
// back until its newline arrives, so a dump is always whole JSONL lines.
type RingBuffer struct {
	mu      sync.Mutex
	records [][]byte
	size    int
	limit   int
	partial []byte
}

// NewRingBuffer returns a buffer that retains about limit bytes of records.
func NewRingBuffer(limit int) *RingBuffer {
	if limit <= 0 {
		limit = 256 * 1024
	}
	return &RingBuffer{limit: limit}
}

// Write implements io.Writer.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rest := p
	for len(rest) > 0 {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			rb.partial = append(rb.partial, rest...)
			break
		}
		rec := make([]byte, 0, len(rb.partial)+i+1)
		rec = append(rec, rb.partial...)
		rec = append(rec, rest[:i+1]...)
		rb.partial = rb.partial[:0]
		rb.push(rec)
		rest = rest[i+1:]
	}
	return len(p), nil
}

// push appends rec and evicts the oldest records over the limit. The newest
// record is always kept, even alone over the limit.
func (rb *RingBuffer) push(rec []byte) {
	rb.records = append(rb.records, rec)
	rb.size += len(rec)
	drop := 0
	for rb.size > rb.limit && len(rb.records)-drop > 1 {
		rb.size -= len(rb.records[drop])
		drop++
	}
	if drop > 0 {
		rb.records = append(rb.records[:0:0], rb.records[drop:]...)
	}
}

// Len returns the bytes held in complete records.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Bytes returns the complete records, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return bytes.Join(rb.records, nil)
}

// DumpToFile writes the buffered records to path, replacing any previous dump.
func (rb *RingBuffer) DumpToFile(path string) error {
	return fsutil.WriteFileAtomic(path, rb.Bytes(), 0o600)
}

package textsql

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultPipeCapacity is the default number of chunks a BoundedPipe buffers
const DefaultPipeCapacity = 10

// errReaderClosed is the cause recorded when the consumer stops reading early
var errReaderClosed = errors.New("reader closed")

// BoundedPipe is a fixed-capacity single-producer single-consumer byte channel.
//
// Every Write is queued as one chunk; Write blocks while capacity chunks are
// queued and Read blocks while none is. Close marks normal completion: the
// consumer drains what is buffered and then reads io.EOF. CloseWithError
// marks the pipe failed: both sides are released at once and every later
// call returns an error wrapping ErrStream.
type BoundedPipe struct {
	mu       sync.Mutex
	cond     *sync.Cond
	chunks   [][]byte
	capacity int
	current  []byte // unread part of the chunk being consumed
	buffer   []byte // full chunk backing current, returned to the pool when drained
	closed   bool
	err      error
	pool     *MemoryPool
}

// NewBoundedPipe creates a pipe holding at most capacity chunks. A nil pool
// allocates chunk buffers directly.
func NewBoundedPipe(capacity int, pool *MemoryPool) *BoundedPipe {
	if capacity <= 0 {
		capacity = DefaultPipeCapacity
	}
	if pool == nil {
		pool = NewMemoryPool(0)
	}
	p := &BoundedPipe{
		capacity: capacity,
		chunks:   make([][]byte, 0, capacity),
		pool:     pool,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Write queues a copy of b as one chunk, blocking while the pipe is full.
func (p *BoundedPipe) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.chunks) >= p.capacity && !p.closed && p.err == nil {
		p.cond.Wait()
	}
	if p.err != nil {
		return 0, p.err
	}
	if p.closed {
		return 0, ErrPipeClosed
	}

	buf := append(p.pool.GetByteBuffer(), b...)
	p.chunks = append(p.chunks, buf)
	p.cond.Broadcast()
	return len(b), nil
}

// Read copies buffered data into b, blocking while the pipe is empty. It
// returns io.EOF once the producer closed the pipe and everything is drained.
func (p *BoundedPipe) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.current) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		if len(p.chunks) > 0 {
			p.recycle()
			p.buffer = p.chunks[0]
			p.current = p.buffer
			p.chunks[0] = nil
			p.chunks = p.chunks[1:]
			p.cond.Broadcast()
			break
		}
		if p.closed {
			return 0, io.EOF
		}
		p.cond.Wait()
	}

	n := copy(b, p.current)
	p.current = p.current[n:]
	return n, nil
}

// recycle returns the drained chunk to the pool. Caller holds p.mu.
func (p *BoundedPipe) recycle() {
	if p.buffer != nil {
		p.pool.PutByteBuffer(p.buffer)
		p.buffer = nil
	}
}

// Close signals that the producer is done. Closing twice is a no-op.
func (p *BoundedPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cond.Broadcast()
	return nil
}

// CloseWithError marks the pipe failed with cause. Either side may call it;
// both are unblocked. The first failure wins.
func (p *BoundedPipe) CloseWithError(cause error) {
	if cause == nil {
		cause = errors.New("unknown failure")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err == nil {
		p.err = fmt.Errorf("%w: %w", ErrStream, cause)
	}
	p.chunks = nil
	p.current = nil
	p.recycle()
	p.cond.Broadcast()
}

// CloseRead is called by the consumer to abandon the stream. A blocked
// producer is released with an error wrapping ErrStream.
func (p *BoundedPipe) CloseRead(cause error) {
	if cause == nil {
		cause = errReaderClosed
	}
	p.CloseWithError(cause)
}

// Err returns the failure recorded on the pipe, if any
func (p *BoundedPipe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Buffered returns the number of queued chunks
func (p *BoundedPipe) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chunks)
}

// Reader returns the consumer end. Closing it before EOF fails the pipe so a
// blocked producer is released.
func (p *BoundedPipe) Reader() io.ReadCloser {
	return &pipeReader{pipe: p}
}

type pipeReader struct {
	pipe *BoundedPipe
}

func (r *pipeReader) Read(b []byte) (int, error) {
	return r.pipe.Read(b)
}

func (r *pipeReader) Close() error {
	r.pipe.mu.Lock()
	done := r.pipe.closed && len(r.pipe.chunks) == 0 && len(r.pipe.current) == 0
	r.pipe.mu.Unlock()

	if !done {
		r.pipe.CloseRead(nil)
	}
	return nil
}

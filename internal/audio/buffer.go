package audio

import (
	"errors"
	"io"
	"sync"
)

// ErrBufferFull is returned by Write when no space is left
var ErrBufferFull = errors.New("buffer is full")

// ErrBufferClosed is returned by Write after Close
var ErrBufferClosed = errors.New("buffer is closed")

// RingBuffer is a circular buffer of PCM bytes between the decoder goroutine
// and the device callback. Close marks the end of the stream; Read reports
// io.EOF once the remaining bytes are drained
type RingBuffer struct {
	mu       sync.Mutex
	buffer   []byte
	size     int
	writePos int
	readPos  int
	count    int
	closed   bool
}

// NewRingBuffer creates a new ring buffer with the specified size in bytes
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1
	}
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write copies as much of data as fits and returns the number of bytes
// written. ErrBufferFull is returned when nothing could be written
func (rb *RingBuffer) Write(data []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return 0, ErrBufferClosed
	}
	if len(data) == 0 {
		return 0, nil
	}
	if rb.count == rb.size {
		return 0, ErrBufferFull
	}

	written := 0
	for written < len(data) && rb.count < rb.size {
		end := rb.size
		if rb.readPos > rb.writePos || (rb.readPos == rb.writePos && rb.count > 0) {
			end = rb.readPos
		}
		n := copy(rb.buffer[rb.writePos:end], data[written:])
		rb.writePos = (rb.writePos + n) % rb.size
		rb.count += n
		written += n
	}
	return written, nil
}

// Read copies up to len(data) buffered bytes into data. It returns io.EOF
// when the buffer is closed and empty, and (0, nil) when it is only empty
func (rb *RingBuffer) Read(data []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		return 0, nil
	}

	read := 0
	for read < len(data) && rb.count > 0 {
		end := rb.size
		if rb.writePos > rb.readPos {
			end = rb.writePos
		}
		n := copy(data[read:], rb.buffer[rb.readPos:end])
		rb.readPos = (rb.readPos + n) % rb.size
		rb.count -= n
		read += n
	}
	return read, nil
}

// Close marks the end of input
func (rb *RingBuffer) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	return nil
}

// Drained reports whether the buffer is closed and every byte has been read
func (rb *RingBuffer) Drained() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.closed && rb.count == 0
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of bytes available to write
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Reset clears the buffer and reopens it for writing
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
	rb.closed = false
}

// Size returns the total size of the buffer
func (rb *RingBuffer) Size() int {
	return rb.size
}

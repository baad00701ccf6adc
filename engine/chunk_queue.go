package engine

import (
	"time"
)

// Chunk is a piece of LPCM data with its presentation time.
type Chunk struct {
	Data      []byte
	StartTime time.Duration
}

// ChunkQueue is the FIFO between Push and Pull of a transcoder whose
// input and output are both the caller. It is not safe for concurrent use.
type ChunkQueue struct {
	chunks      []Chunk
	endOfStream bool
}

// Push queues a copy of data.
func (q *ChunkQueue) Push(data []byte, startTime time.Duration) {
	q.chunks = append(q.chunks, Chunk{
		Data:      append([]byte(nil), data...),
		StartTime: startTime,
	})
}

// Pop returns the oldest chunk; ok is false if the queue is empty.
func (q *ChunkQueue) Pop() (_ Chunk, ok bool) {
	if len(q.chunks) == 0 {
		return Chunk{}, false
	}
	c := q.chunks[0]
	q.chunks[0] = Chunk{}
	q.chunks = q.chunks[1:]
	return c, true
}

func (q *ChunkQueue) Len() int {
	return len(q.chunks)
}

// CloseInput marks that nothing will be pushed anymore.
func (q *ChunkQueue) CloseInput() {
	q.endOfStream = true
}

// IsInputClosed returns true after CloseInput.
func (q *ChunkQueue) IsInputClosed() bool {
	return q.endOfStream
}

// Reset drops the queued chunks and reopens the input.
func (q *ChunkQueue) Reset() {
	q.chunks = nil
	q.endOfStream = false
}

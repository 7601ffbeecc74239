package domain

// StreamChunk is one incremental fragment of a streamed completion.
// Raw carries the provider's own chunk JSON so the transport layer can
// forward it downstream without re-framing; Content is the extracted
// delta text.
type StreamChunk struct {
	Content string
	Raw     []byte
}

// AnswerStream is a lazy sequence of completion chunks.
// Recv returns io.EOF after the provider's end marker; Close releases
// the upstream connection and is safe to call at any point.
type AnswerStream interface {
	Recv() (StreamChunk, error)
	Close() error
}

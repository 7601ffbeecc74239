package perplexity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProtocol signals a malformed or out-of-order event stream.
var ErrProtocol = errors.New("protocol error")

// decodeState tracks the stream protocol position. The sources frame
// must precede every delta frame; anything else is a protocol error.
type decodeState int

const (
	expectSources decodeState = iota
	expectDeltas
	decodeDone
)

const doneMarker = "[DONE]"

// decoder consumes SSE event payloads and yields delta text. It is a
// single-consumer state machine: feed payloads in arrival order.
type decoder struct {
	state   decodeState
	sources []Source
}

// chunkEnvelope mirrors the provider chunk JSON the server forwards
// verbatim. Unknown fields are inert.
type chunkEnvelope struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// feed advances the state machine with one event payload. It returns the
// extracted delta text (empty for the sources frame, the terminal marker,
// and content-free chunks).
func (d *decoder) feed(payload []byte) (string, error) {
	switch d.state {
	case expectSources:
		if string(payload) == doneMarker {
			return "", fmt.Errorf("%w: stream ended before the sources frame", ErrProtocol)
		}
		var sources []Source
		if err := json.Unmarshal(payload, &sources); err != nil {
			return "", fmt.Errorf("%w: first event is not a sources array: %v", ErrProtocol, err)
		}
		d.sources = sources
		d.state = expectDeltas
		return "", nil

	case expectDeltas:
		if string(payload) == doneMarker {
			d.state = decodeDone
			return "", nil
		}
		var chunk chunkEnvelope
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", fmt.Errorf("%w: malformed delta event: %v", ErrProtocol, err)
		}
		if len(chunk.Choices) == 0 {
			return "", nil
		}
		return chunk.Choices[0].Delta.Content, nil

	default:
		return "", fmt.Errorf("%w: event after terminal marker", ErrProtocol)
	}
}

// done reports whether the terminal marker has been seen.
func (d *decoder) done() bool { return d.state == decodeDone }

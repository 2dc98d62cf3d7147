package stream

import (
	"encoding/json"
	"strings"
)

// errorPayload is the JSON body carried by an error frame on the wire.
type errorPayload struct {
	Message string `json:"message"`
}

// Encode serializes a frame to the wire format: bare bracketed control
// tokens or "data: <payload>" lines, each terminated by a blank line.
// An error frame expands to the [ERROR] marker plus a JSON payload frame;
// the strategy emits the trailing done frame separately.
func Encode(f Frame) string {
	switch f.Kind {
	case KindStart:
		return MarkerStart + "\n\n"
	case KindStrategy:
		return "data: " + f.Payload + "\n\n"
	case KindData:
		return "data: " + f.Payload + "\n\n"
	case KindError:
		body, _ := json.Marshal(errorPayload{Message: f.Payload})
		return MarkerError + "\n\n" + "data: " + string(body) + "\n\n"
	case KindDone:
		return MarkerDone + "\n\n"
	}
	return ""
}

// Accumulator reconstructs plain assistant text from a frame sequence,
// skipping control frames. The payload heuristic mirrors what wire-level
// consumers do: anything bracketed, JSON-looking, or equal to a known
// strategy-name token is not assistant text.
type Accumulator struct {
	controlTokens map[string]struct{}
	b             strings.Builder
}

// NewAccumulator creates an accumulator. controlTokens lists the
// strategy-name tokens that must never count as assistant text.
func NewAccumulator(controlTokens ...string) *Accumulator {
	set := make(map[string]struct{}, len(controlTokens))
	for _, tok := range controlTokens {
		set[tok] = struct{}{}
	}
	return &Accumulator{controlTokens: set}
}

// Add feeds one frame to the accumulator.
func (a *Accumulator) Add(f Frame) {
	if f.Kind != KindData {
		return
	}
	if a.isControl(f.Payload) {
		return
	}
	a.b.WriteString(f.Payload)
}

// AddPayload feeds one raw wire payload, for consumers that only see
// decoded "data:" lines rather than typed frames.
func (a *Accumulator) AddPayload(payload string) {
	if a.isControl(payload) {
		return
	}
	a.b.WriteString(payload)
}

func (a *Accumulator) isControl(payload string) bool {
	if payload == "" {
		return false
	}
	if strings.HasPrefix(payload, "[") {
		return true
	}
	if strings.Contains(payload, "{") {
		return true
	}
	_, known := a.controlTokens[payload]
	return known
}

// Text returns the accumulated plain assistant text.
func (a *Accumulator) Text() string {
	return a.b.String()
}

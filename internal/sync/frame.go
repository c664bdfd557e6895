package sync

import "encoding/json"

// Frame is one inbound websocket message. The usual shape is
// {"source": <topic>, "data": <payload>} but several server paths reply
// without the data wrapper, putting the payload fields next to "source".
type Frame struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`

	raw []byte
}

// DecodeFrame parses a raw inbound message into a frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	f.raw = raw
	return &f, nil
}

// Payload returns the data field when present and falls back to the whole
// frame otherwise. Reducers tolerate either shape.
func (f *Frame) Payload() []byte {
	if len(f.Data) > 0 && string(f.Data) != "null" {
		return f.Data
	}
	return f.raw
}

package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Encode marshals the message for the wire. Errors are impossible for the
// payload types we send, so they are swallowed into a nil slice.
func (m Message) Encode() []byte {
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

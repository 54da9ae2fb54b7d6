package protocol

import (
	"encoding/json"
)

// Message types.
const (
	TypeSetEmotion       = "setEmotion"
	TypeSetActionUnits   = "setActionUnits"
	TypeSetSingleEmotion = "setSingleEmotion"
	TypeBlink            = "blink"

	TypeReady = "ready"
	TypeError = "error"
)

// Envelope frames a message on a bidirectional channel. Payload carries the
// message body; when it is absent the body is read from the envelope itself,
// so {"type":"setActionUnits","actionUnits":{...}} is accepted too.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Value   string          `json:"value,omitempty"`
}

// Reply is an outbound notification.
type Reply struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func ReadyReply() Reply { return Reply{Type: TypeReady, Value: "true"} }

func ErrorReply(err error) Reply { return Reply{Type: TypeError, Value: err.Error()} }

func DecodeEnvelope(data []byte) (Envelope, []byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, invalid("", "malformed envelope: %v", err)
	}
	if env.Type == "" {
		return Envelope{}, nil, invalid("type", "is required")
	}
	body := []byte(env.Payload)
	if len(body) == 0 {
		body = data
	}
	return env, body, nil
}

// untyped reports whether data is a JSON object without a type field. The
// sentiment backend publishes its emotion state in that shape.
func untyped(data []byte) bool {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false
	}
	return head.Type == nil
}

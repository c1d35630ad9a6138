package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Message types.
const (
	TypeModel     = "model"
	TypeState     = "state"
	TypeGetModel  = "get_model"
	TypeGetStates = "get_states"
	TypeError     = "error"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	if m.Type == "" {
		return m, fmt.Errorf("message without type")
	}
	return m, nil
}

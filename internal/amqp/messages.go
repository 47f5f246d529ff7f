package amqp

import (
	"encoding/json"
	"time"
)

// PacheChangedMessage notifies consumers that a pache mutated. It carries
// only the id and the kind of change; the worker fetches the current
// snapshot from the store, so a stale message is harmless.
type PacheChangedMessage struct {
	PacheID   string    `json:"pacheId"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPacheChangedMessage(pacheID, op string) *PacheChangedMessage {
	return &PacheChangedMessage{
		PacheID:   pacheID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *PacheChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PacheChangedMessageFromJSON(data []byte) (*PacheChangedMessage, error) {
	var msg PacheChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

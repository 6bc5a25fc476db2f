package amqp

import (
	"encoding/json"
	"time"
)

// SyncMessage asks the sync worker to push one transaction to the export
// target. It carries only the ID; the worker fetches the current record
// from the repository so stale payloads cannot overwrite newer state.
type SyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// DeleteMessage asks the sync worker to remove a transaction from the
// export target.
type DeleteMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id string) *SyncMessage {
	return &SyncMessage{ID: id, Timestamp: time.Now()}
}

func NewDeleteMessage(id string) *DeleteMessage {
	return &DeleteMessage{ID: id, Timestamp: time.Now()}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *DeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DeleteMessageFromJSON(data []byte) (*DeleteMessage, error) {
	var msg DeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

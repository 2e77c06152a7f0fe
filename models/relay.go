package models

import (
	// Go Internal Packages
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// OutboundMessage is a single message submitted for publishing.
type OutboundMessage struct {
	Topic string          `json:"topic"`
	Key   *string         `json:"key,omitempty"`
	Value json.RawMessage `json:"value"`
}

// HasValue reports whether Value is present and truthy. Absent values and
// the JSON literals null, false, "" and any numeric zero count as missing;
// empty objects and arrays do not.
func (m OutboundMessage) HasValue() bool {
	v := bytes.TrimSpace(m.Value)
	switch string(v) {
	case "", "null", "false", `""`:
		return false
	}
	if c := v[0]; c == '-' || (c >= '0' && c <= '9') {
		n, err := strconv.ParseFloat(string(v), 64)
		return err != nil || n != 0
	}
	return true
}

// RecordKey returns the key bytes, nil when no key or an empty key was given.
func (m OutboundMessage) RecordKey() []byte {
	if m.Key == nil || *m.Key == "" {
		return nil
	}
	return []byte(*m.Key)
}

// EncodedValue returns Value as compact JSON.
func (m OutboundMessage) EncodedValue() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, m.Value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FailedSend is what the dead-letter queue keeps about a send that could not
// be confirmed by the broker.
type FailedSend struct {
	Topic    string          `json:"topic"`
	Key      *string         `json:"key"`
	Value    json.RawMessage `json:"value"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}

// Health is the relay's liveness report.
type Health struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	ConsumerConnected bool   `json:"consumerConnected"`
	ConsumerRunning   bool   `json:"consumerRunning"`
}

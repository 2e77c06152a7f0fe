package memory

import (
	// Go Internal Packages
	"sort"
	"sync"

	// Local Packages
	models "kafka-relay/models"
)

// DefaultCapacity is the per-topic cap used when none is configured.
const DefaultCapacity = 100

// MessageStore keeps the most recent records of every topic it has seen.
// Each topic holds at most capacity records; the oldest is evicted first.
//
// Sorting happens on every Read, which is O(n log n) in the capacity. That
// is fine at the default cap; raise it with care.
type MessageStore struct {
	mu       sync.RWMutex
	capacity int
	topics   map[string][]models.InboundRecord
}

func NewMessageStore(capacity int) *MessageStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MessageStore{
		capacity: capacity,
		topics:   make(map[string][]models.InboundRecord),
	}
}

func (s *MessageStore) Capacity() int {
	return s.capacity
}

// Append adds record at the tail of topic's buffer, evicting from the head
// while the buffer is over capacity.
func (s *MessageStore) Append(topic string, record models.InboundRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.topics[topic], record)
	if over := len(buf) - s.capacity; over > 0 {
		n := copy(buf, buf[over:])
		clear(buf[n:])
		buf = buf[:n]
	}
	s.topics[topic] = buf
}

// Read returns up to limit of topic's most recent records by timestamp, in
// ascending timestamp order. The stored order is left untouched.
func (s *MessageStore) Read(topic string, limit int) []models.InboundRecord {
	s.mu.RLock()
	out := make([]models.InboundRecord, len(s.topics[topic]))
	copy(out, s.topics[topic])
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMillis() < out[j].TimestampMillis()
	})

	if limit >= 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Len returns the number of records buffered for topic.
func (s *MessageStore) Len(topic string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.topics[topic])
}

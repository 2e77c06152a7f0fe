package models

import (
	// Go Internal Packages
	"strconv"
	"strings"
	"time"
)

// Record is a single record as fetched from the broker, before decoding.
type Record struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Inbound decodes the record's key and value as UTF-8 text. A nil key stays
// null; invalid byte sequences are replaced with U+FFFD.
func (r Record) Inbound() InboundRecord {
	in := InboundRecord{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Value:     strings.ToValidUTF8(string(r.Value), "\uFFFD"),
		Timestamp: strconv.FormatInt(r.Timestamp.UnixMilli(), 10),
	}
	if r.Key != nil {
		key := strings.ToValidUTF8(string(r.Key), "\uFFFD")
		in.Key = &key
	}
	return in
}

// InboundRecord is a consumed record as it is buffered and served back to
// polling clients.
type InboundRecord struct {
	Topic     string  `json:"topic"`
	Partition int32   `json:"partition"`
	Offset    int64   `json:"offset"`
	Key       *string `json:"key"`
	Value     string  `json:"value"`
	Timestamp string  `json:"timestamp"` // epoch millis
}

// TimestampMillis parses Timestamp, treating unparsable values as zero.
func (r InboundRecord) TimestampMillis() int64 {
	ms, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// RecordMetadata describes where a produced record landed.
type RecordMetadata struct {
	TopicName     string `json:"topicName"`
	Partition     int32  `json:"partition"`
	ErrorCode     int16  `json:"errorCode"`
	BaseOffset    string `json:"baseOffset"`
	LogAppendTime string `json:"logAppendTime"`
}

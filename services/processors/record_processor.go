package processors

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "kafka-relay/models"

	// External Packages
	"go.uber.org/zap"
)

type MessageStore interface {
	Append(topic string, record models.InboundRecord)
}

// RecordProcessor buffers every consumed record in the message store.
type RecordProcessor struct {
	Logger *zap.Logger
	Store  MessageStore
}

func NewRecordProcessor(logger *zap.Logger, store MessageStore) *RecordProcessor {
	return &RecordProcessor{Store: store, Logger: logger}
}

// ProcessRecords appends records in the order they were delivered.
func (p *RecordProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	for _, record := range records {
		if err := p.ProcessRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (p *RecordProcessor) ProcessRecord(ctx context.Context, record models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inbound := record.Inbound()
	p.Logger.Debug("message received",
		zap.String("topic", inbound.Topic),
		zap.Int32("partition", inbound.Partition),
		zap.Int64("offset", inbound.Offset),
	)

	p.Store.Append(inbound.Topic, inbound)
	return nil
}

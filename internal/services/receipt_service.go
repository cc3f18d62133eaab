package services

import (
	"context"
	"fmt"
	"log/slog"

	"raseed/internal/amqp"
	"raseed/internal/core"
	"raseed/internal/store"
)

// EventPublisher emits ingestion events for downstream workers.
type EventPublisher interface {
	PublishReceiptIngested(ctx context.Context, msg *amqp.ReceiptIngestedMessage) error
}

// ReceiptService orchestrates receipt ingestion: validate, persist,
// then announce the new receipt on the message bus.
type ReceiptService struct {
	writer    store.ReceiptWriter
	publisher EventPublisher
}

func NewReceiptService(writer store.ReceiptWriter, publisher EventPublisher) *ReceiptService {
	return &ReceiptService{
		writer:    writer,
		publisher: publisher,
	}
}

// IngestReceipt persists a normalized receipt and publishes a
// receipt.ingested event. A missing category summary is derived from
// the items before validation. Publish failures are logged, not
// returned: the receipt is already durable.
func (s *ReceiptService) IngestReceipt(ctx context.Context, receipt core.Receipt) (core.Receipt, error) {
	if len(receipt.CategorySummary) == 0 {
		receipt.CategorySummary = receipt.DeriveCategorySummary()
	}

	if err := receipt.Validate(); err != nil {
		return core.Receipt{}, err
	}

	if err := s.writer.SaveReceipt(ctx, receipt); err != nil {
		return core.Receipt{}, fmt.Errorf("save receipt: %w", err)
	}

	if err := s.publishIngested(ctx, receipt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish receipt.ingested event",
			"receipt_id", receipt.ReceiptID,
			"uid", receipt.UID,
			"error", err)
	}

	return receipt, nil
}

func (s *ReceiptService) publishIngested(ctx context.Context, receipt core.Receipt) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping receipt.ingested event")
		return nil
	}

	msg := amqp.NewReceiptIngestedMessage(receipt.ReceiptID, receipt.UID, receipt.Timestamp)
	return s.publisher.PublishReceiptIngested(ctx, msg)
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/queue"
	"inkwell/internal/utils"
)

// historyStore is the subset of HistoryRepository the worker needs.
type historyStore interface {
	Create(ctx context.Context, record *models.GenerationRecord) error
	CreateBatch(ctx context.Context, records []*models.GenerationRecord) error
}

// HistoryQueueWorker persists generation records asynchronously so request
// handlers never block on the database.
type HistoryQueueWorker struct {
	queue       queue.Queue
	dlq         queue.DeadLetterQueue
	store       historyStore
	config      *queue.Config
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewHistoryQueueWorker creates a new history queue worker
func NewHistoryQueueWorker(q queue.Queue, dlq queue.DeadLetterQueue, store historyStore, config *queue.Config) *HistoryQueueWorker {
	if config == nil {
		config = queue.DefaultConfig("history")
	}

	return &HistoryQueueWorker{
		queue:       q,
		dlq:         dlq,
		store:       store,
		config:      config,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine
func (w *HistoryQueueWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *HistoryQueueWorker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// Enqueue adds a generation record to the queue
func (w *HistoryQueueWorker) Enqueue(ctx context.Context, record *models.GenerationRecord) error {
	return w.queue.Enqueue(ctx, record)
}

// run is the main worker loop
func (w *HistoryQueueWorker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	logger := utils.NewLogger("history-worker")

	for {
		select {
		case <-w.stopChan:
			logger.Info("History worker stopping")
			return
		case <-ctx.Done():
			logger.Info("History worker context cancelled")
			return
		default:
			w.processBatch(ctx, logger)
		}
	}
}

// processBatch processes a batch of generation records
func (w *HistoryQueueWorker) processBatch(ctx context.Context, logger *utils.Logger) {
	items, err := w.queue.DequeueWithTimeout(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil {
		logger.Error("Failed to dequeue generation records", "error", err)
		time.Sleep(1 * time.Second) // Back off on error
		return
	}

	if len(items) == 0 {
		return
	}

	logger.Debug("Processing history batch", "count", len(items))

	records := make([]*models.GenerationRecord, 0, len(items))
	for _, item := range items {
		var record models.GenerationRecord
		if err := w.unmarshalItem(item, &record); err != nil {
			logger.Error("Failed to unmarshal generation record", "error", err)
			continue
		}
		records = append(records, &record)
	}

	if len(records) == 0 {
		return
	}

	if err := w.store.CreateBatch(ctx, records); err != nil {
		logger.Error("Failed to insert batch, falling back to individual inserts", "error", err)
		// Fall back to individual inserts with retries
		for _, record := range records {
			if err := w.processItem(ctx, record, logger); err != nil {
				logger.Error("Failed to process generation record", "error", err)
			}
		}
	}
}

// processItem processes a single generation record with retries
func (w *HistoryQueueWorker) processItem(ctx context.Context, record *models.GenerationRecord, logger *utils.Logger) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := w.config.RetryBackoff * time.Duration(1<<uint(attempt-1))
			logger.Debug("Retrying generation record", "attempt", attempt, "backoff", backoff)
			time.Sleep(backoff)
		}

		if err := w.store.Create(ctx, record); err != nil {
			lastErr = err
			logger.Error("Failed to insert generation record", "attempt", attempt, "error", err)
			continue
		}

		logger.Debug("Generation record inserted", "generation_id", record.ID)
		return nil
	}

	// Max retries exceeded - add to dead letter queue
	if w.dlq != nil {
		if err := w.dlq.Add(ctx, record, lastErr); err != nil {
			logger.Error("Failed to add to dead letter queue", "error", err)
		} else {
			logger.Warn("Generation record moved to DLQ", "generation_id", record.ID, "error", lastErr)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// unmarshalItem unmarshals a queue item into a GenerationRecord
func (w *HistoryQueueWorker) unmarshalItem(item interface{}, record *models.GenerationRecord) error {
	switch v := item.(type) {
	case *models.GenerationRecord:
		*record = *v
		return nil
	case models.GenerationRecord:
		*record = v
		return nil
	case []byte:
		return json.Unmarshal(v, record)
	case json.RawMessage:
		return json.Unmarshal(v, record)
	default:
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		return json.Unmarshal(data, record)
	}
}

// GetQueueLength returns the current queue length
func (w *HistoryQueueWorker) GetQueueLength(ctx context.Context) (int, error) {
	return w.queue.Length(ctx)
}

// GetDeadLetterItems returns items from the dead letter queue
func (w *HistoryQueueWorker) GetDeadLetterItems(ctx context.Context, maxItems int) ([]queue.DeadLetterItem, error) {
	if w.dlq == nil {
		return nil, fmt.Errorf("dead letter queue not configured")
	}
	return w.dlq.List(ctx, maxItems)
}

// RetryDeadLetterItem re-enqueues a failed item from the dead letter queue
func (w *HistoryQueueWorker) RetryDeadLetterItem(ctx context.Context, id string) error {
	if w.dlq == nil {
		return fmt.Errorf("dead letter queue not configured")
	}

	items, err := w.dlq.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list dead letter items: %w", err)
	}

	for _, dlItem := range items {
		if dlItem.ID == id {
			if err := w.queue.Enqueue(ctx, dlItem.Item); err != nil {
				return fmt.Errorf("failed to re-enqueue item: %w", err)
			}

			if err := w.dlq.Remove(ctx, id); err != nil {
				return fmt.Errorf("failed to remove from DLQ: %w", err)
			}

			return nil
		}
	}

	return fmt.Errorf("item not found in dead letter queue")
}

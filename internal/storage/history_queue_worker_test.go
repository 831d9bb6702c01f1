package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/queue"
)

// mockHistoryStore simulates database operations for testing
type mockHistoryStore struct {
	mu        sync.Mutex
	records   []*models.GenerationRecord
	failCount int
	maxFails  int
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{
		records: make([]*models.GenerationRecord, 0),
	}
}

func (m *mockHistoryStore) Create(ctx context.Context, record *models.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCount < m.maxFails {
		m.failCount++
		return fmt.Errorf("simulated database error")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()

	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryStore) CreateBatch(ctx context.Context, records []*models.GenerationRecord) error {
	m.mu.Lock()
	if m.failCount < m.maxFails {
		m.failCount++
		m.mu.Unlock()
		return fmt.Errorf("simulated database error")
	}
	m.mu.Unlock()

	for _, record := range records {
		if err := m.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHistoryStore) getRecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockHistoryStore) setFailures(maxFails int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCount = 0
	m.maxFails = maxFails
}

func testRecord(model string) *models.GenerationRecord {
	return &models.GenerationRecord{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		TaskType:     "text-writing",
		Provider:     "openai",
		Model:        model,
		Prompt:       "Write a short product description.",
		Content:      "A fine product.",
		InputTokens:  100,
		OutputTokens: 50,
		CostUSD:      0.001,
		Status:       models.GenerationStatusCompleted,
	}
}

func waitForRecords(t *testing.T, store *mockHistoryStore, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.getRecordCount() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d records, got %d", want, store.getRecordCount())
}

func TestHistoryQueueWorker_SingleRecord(t *testing.T) {
	config := queue.DefaultConfig("test-history")
	config.BatchSize = 10
	config.BatchTimeout = 50 * time.Millisecond

	q := queue.NewMemoryQueue(config)
	dlq := queue.NewMemoryDeadLetterQueue()
	store := newMockHistoryStore()

	worker := NewHistoryQueueWorker(q, dlq, store, config)
	ctx := context.Background()
	worker.Start(ctx)
	defer worker.Stop()

	if err := worker.Enqueue(ctx, testRecord("gpt-4o")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	waitForRecords(t, store, 1)
}

func TestHistoryQueueWorker_BatchRecords(t *testing.T) {
	config := queue.DefaultConfig("test-history-batch")
	config.BatchSize = 5
	config.BatchTimeout = 50 * time.Millisecond

	q := queue.NewMemoryQueue(config)
	dlq := queue.NewMemoryDeadLetterQueue()
	store := newMockHistoryStore()

	worker := NewHistoryQueueWorker(q, dlq, store, config)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := worker.Enqueue(ctx, testRecord(fmt.Sprintf("model-%d", i))); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	length, err := worker.GetQueueLength(ctx)
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}
	if length != 10 {
		t.Errorf("Expected queue length 10, got %d", length)
	}

	worker.Start(ctx)
	defer worker.Stop()

	waitForRecords(t, store, 10)
}

func TestHistoryQueueWorker_FallbackToIndividualInserts(t *testing.T) {
	config := queue.DefaultConfig("test-history-fallback")
	config.BatchSize = 5
	config.BatchTimeout = 50 * time.Millisecond
	config.MaxRetries = 2
	config.RetryBackoff = 5 * time.Millisecond

	q := queue.NewMemoryQueue(config)
	dlq := queue.NewMemoryDeadLetterQueue()
	store := newMockHistoryStore()
	// First call (the batch insert) fails; individual inserts succeed.
	store.setFailures(1)

	worker := NewHistoryQueueWorker(q, dlq, store, config)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := worker.Enqueue(ctx, testRecord("gpt-4o")); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	worker.Start(ctx)
	defer worker.Stop()

	waitForRecords(t, store, 3)
}

func TestHistoryQueueWorker_DeadLetterQueue(t *testing.T) {
	config := queue.DefaultConfig("test-history-dlq")
	config.BatchSize = 1
	config.BatchTimeout = 50 * time.Millisecond
	config.MaxRetries = 1
	config.RetryBackoff = 5 * time.Millisecond

	q := queue.NewMemoryQueue(config)
	dlq := queue.NewMemoryDeadLetterQueue()
	store := newMockHistoryStore()
	// Every insert fails so the record exhausts its retries.
	store.setFailures(100)

	worker := NewHistoryQueueWorker(q, dlq, store, config)
	ctx := context.Background()

	if err := worker.Enqueue(ctx, testRecord("gpt-4o")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	worker.Start(ctx)
	defer worker.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		items, err := worker.GetDeadLetterItems(ctx, 10)
		if err != nil {
			t.Fatalf("GetDeadLetterItems failed: %v", err)
		}
		if len(items) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Expected record in dead letter queue")
}

func TestHistoryQueueWorker_RetryDeadLetterItem(t *testing.T) {
	config := queue.DefaultConfig("test-history-retry")
	config.BatchSize = 1
	config.BatchTimeout = 50 * time.Millisecond

	q := queue.NewMemoryQueue(config)
	dlq := queue.NewMemoryDeadLetterQueue()
	store := newMockHistoryStore()

	worker := NewHistoryQueueWorker(q, dlq, store, config)
	ctx := context.Background()

	record := testRecord("gpt-4o")
	if err := dlq.Add(ctx, record, fmt.Errorf("simulated failure")); err != nil {
		t.Fatalf("DLQ Add failed: %v", err)
	}

	items, err := dlq.List(ctx, 10)
	if err != nil {
		t.Fatalf("DLQ List failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 DLQ item, got %d", len(items))
	}

	if err := worker.RetryDeadLetterItem(ctx, items[0].ID); err != nil {
		t.Fatalf("RetryDeadLetterItem failed: %v", err)
	}

	length, err := worker.GetQueueLength(ctx)
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}
	if length != 1 {
		t.Errorf("Expected re-enqueued item, queue length %d", length)
	}

	remaining, err := dlq.List(ctx, 10)
	if err != nil {
		t.Fatalf("DLQ List failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected empty DLQ, got %d items", len(remaining))
	}
}

func TestHistoryQueueWorker_ConcurrentEnqueue(t *testing.T) {
	config := queue.DefaultConfig("test-history-concurrent")
	config.BatchSize = 100

	q := queue.NewMemoryQueue(config)
	defer q.Close()
	store := newMockHistoryStore()

	worker := NewHistoryQueueWorker(q, nil, store, config)
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 10

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				_ = worker.Enqueue(ctx, testRecord(fmt.Sprintf("model-%d", goroutineID)))
			}
		}(i)
	}

	wg.Wait()

	length, err := worker.GetQueueLength(ctx)
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}

	expected := numGoroutines * recordsPerGoroutine
	if length != expected {
		t.Errorf("Expected queue length %d, got %d", expected, length)
	}
}

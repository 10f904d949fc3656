package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/category-tree/internal/usecase"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type outboxRepoMock struct {
	mock.Mock
}

func (m *outboxRepoMock) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	args := m.Called(ctx, event)
	res, _ := args.Get(0).(*usecase.OutboxEvent)
	return res, args.Error(1)
}

func (m *outboxRepoMock) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	res, _ := args.Get(0).([]*usecase.OutboxEvent)
	return res, args.Error(1)
}

func (m *outboxRepoMock) MarkAsProcessed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *outboxRepoMock) MarkAsPending(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type producerMock struct {
	mock.Mock
}

func (m *producerMock) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	return m.Called(ctx, req).Error(0)
}

func outboxEvent(id int64) *usecase.OutboxEvent {
	event := usecase.NewOutboxEvent(uuid.NewString(), uuid.New(), []byte(`{}`))
	event.ID = id
	event.Status = usecase.Processing
	return event
}

func TestProcessBatch_MarksSentEventsProcessed(t *testing.T) {
	ctx := context.Background()
	repo := &outboxRepoMock{}
	producer := &producerMock{}
	first, second := outboxEvent(1), outboxEvent(2)

	repo.On("GetAndMarkAsProcessing", ctx, 2).Return([]*usecase.OutboxEvent{first, second}, nil)
	producer.On("WriteRawMessage", ctx, mock.MatchedBy(func(req *usecase.WriteRawMessageReq) bool {
		return req.Key == first.AggregateID.String() || req.Key == second.AggregateID.String()
	})).Return(nil)
	repo.On("MarkAsProcessed", ctx, int64(1)).Return(nil)
	repo.On("MarkAsProcessed", ctx, int64(2)).Return(nil)

	w := NewOutboxWorker(repo, logger.Nop(), producer, 2, "")
	hasMore, err := w.processBatch(ctx)

	require.NoError(t, err)
	assert.True(t, hasMore, "full batch means more events may be waiting")
	repo.AssertExpectations(t)
	producer.AssertNumberOfCalls(t, "WriteRawMessage", 2)
}

func TestProcessBatch_FailedSendReturnsEventToPending(t *testing.T) {
	ctx := context.Background()
	repo := &outboxRepoMock{}
	producer := &producerMock{}
	ok, broken := outboxEvent(1), outboxEvent(2)

	repo.On("GetAndMarkAsProcessing", ctx, 2).Return([]*usecase.OutboxEvent{ok, broken}, nil)
	producer.On("WriteRawMessage", ctx, mock.MatchedBy(func(req *usecase.WriteRawMessageReq) bool {
		return req.Key == ok.AggregateID.String()
	})).Return(nil)
	producer.On("WriteRawMessage", ctx, mock.MatchedBy(func(req *usecase.WriteRawMessageReq) bool {
		return req.Key == broken.AggregateID.String()
	})).Return(errors.New("dial tcp: connection refused"))
	repo.On("MarkAsProcessed", ctx, int64(1)).Return(nil)
	repo.On("MarkAsPending", ctx, int64(2)).Return(nil)

	w := NewOutboxWorker(repo, logger.Nop(), producer, 2, "")
	hasMore, err := w.processBatch(ctx)

	require.NoError(t, err)
	assert.False(t, hasMore, "a failed send stops draining until the next wake-up")
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkAsProcessed", ctx, int64(2))
}

func TestProcessBatch_EmptyAndRepoError(t *testing.T) {
	ctx := context.Background()
	repo := &outboxRepoMock{}
	repo.On("GetAndMarkAsProcessing", ctx, defaultBatchSize).Return(nil, nil).Once()
	repo.On("GetAndMarkAsProcessing", ctx, defaultBatchSize).Return(nil, errors.New("db down")).Once()

	w := NewOutboxWorker(repo, logger.Nop(), &producerMock{}, 0, "")

	hasMore, err := w.processBatch(ctx)
	require.NoError(t, err)
	assert.False(t, hasMore)

	_, err = w.processBatch(ctx)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("read: Connection Reset by peer")))
	assert.True(t, isRetryableError(errors.New("i/o timeout")))
	assert.False(t, isRetryableError(errors.New("message too large")))
	assert.False(t, isRetryableError(nil))
}

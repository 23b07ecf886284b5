package submission

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
)

type fakeChannel struct {
	published  []amqp.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp.Delivery
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return f.publishErr
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

type ackRecorder struct {
	mu       sync.Mutex
	acks     int
	nacks    int
	requeued int
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error { return nil }

type evaluatorMock struct {
	mock.Mock
}

func (m *evaluatorMock) Evaluate(ctx context.Context, submissionID string) (*Submission, error) {
	args := m.Called(ctx, submissionID)
	s, _ := args.Get(0).(*Submission)
	return s, args.Error(1)
}

func (m *evaluatorMock) Fail(ctx context.Context, submissionID, reason string) error {
	return m.Called(ctx, submissionID, reason).Error(0)
}

func TestQueueDispatcher(t *testing.T) {
	ch := &fakeChannel{}
	d := NewQueueDispatcher(ch, "submission_evaluations")

	require.NoError(t, d.Dispatch(context.Background(), "s1"))
	require.Len(t, ch.published, 1)
	assert.Equal(t, "submission_evaluations", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.JSONEq(t, `{"submission_id":"s1"}`, string(ch.published[0].Body))

	ch.publishErr = errors.New("channel closed")
	assert.ErrorIs(t, d.Dispatch(context.Background(), "s2"), apperrors.ErrExternalService)
}

func TestConsumer_Listen(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
	svc := &evaluatorMock{}
	svc.On("Evaluate", mock.Anything, "ok").Return(&Submission{ID: "ok"}, nil)
	svc.On("Evaluate", mock.Anything, "gone").Return(nil, apperrors.NotFound("Submission not found"))
	svc.On("Evaluate", mock.Anything, "flaky").Return(nil, apperrors.Persistence("Error saving verdict", errors.New("timeout")))
	svc.On("Fail", mock.Anything, "gone", "Could not evaluate submission: Submission not found").Return(nil).Once()

	acks := &ackRecorder{}
	body := func(id string) []byte {
		b, _ := json.Marshal(EvaluationMessage{SubmissionID: id})
		return b
	}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, Body: body("ok")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, Body: body("gone")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, Body: body("flaky")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, Body: []byte("garbage")}
	close(ch.deliveries)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, NewConsumer(ch, "q", svc).Listen(ctx))

	assert.Equal(t, 2, acks.acks)
	assert.Equal(t, 2, acks.nacks)
	assert.Equal(t, 1, acks.requeued)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "Fail", mock.Anything, "flaky", mock.Anything)
}

func TestConsumer_FailsSubmissionAfterLastRetry(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 1)}
	svc := &evaluatorMock{}
	svc.On("Evaluate", mock.Anything, "flaky").Return(nil, apperrors.Persistence("Error saving verdict", errors.New("timeout")))
	svc.On("Fail", mock.Anything, "flaky", "Could not evaluate submission: Error saving verdict").Return(nil).Once()

	acks := &ackRecorder{}
	body, _ := json.Marshal(EvaluationMessage{SubmissionID: "flaky"})
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, Body: body, Redelivered: true}
	close(ch.deliveries)

	require.NoError(t, NewConsumer(ch, "q", svc).Listen(context.Background()))
	assert.Equal(t, 1, acks.nacks)
	assert.Zero(t, acks.requeued)
	svc.AssertExpectations(t)
}

func TestInlineDispatcher(t *testing.T) {
	svc := &evaluatorMock{}
	svc.On("Evaluate", mock.Anything, "s1").Return(&Submission{ID: "s1"}, nil)
	assert.NoError(t, NewInlineDispatcher(svc, time.Second).Dispatch(context.Background(), "s1"))
}

func TestInlineDispatcher_OutlivesCancelledRequest(t *testing.T) {
	live := mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	})
	svc := &evaluatorMock{}
	svc.On("Evaluate", live, "s1").Return(&Submission{ID: "s1"}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, NewInlineDispatcher(svc, time.Second).Dispatch(ctx, "s1"))
	svc.AssertExpectations(t)
}

package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"go.uber.org/zap"
)

// Dispatcher hands a stored pending submission to evaluation.
type Dispatcher interface {
	Dispatch(ctx context.Context, submissionID string) error
}

type submissionEvaluator interface {
	Evaluate(ctx context.Context, submissionID string) (*Submission, error)
	Fail(ctx context.Context, submissionID, reason string) error
}

// InlineDispatcher grades the submission before Submit returns. Grading is
// detached from the caller's cancellation so a client that disconnects does
// not abandon the submission half way.
type InlineDispatcher struct {
	service submissionEvaluator
	timeout time.Duration
}

func NewInlineDispatcher(service submissionEvaluator, timeout time.Duration) *InlineDispatcher {
	return &InlineDispatcher{service: service, timeout: timeout}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, submissionID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	_, err := d.service.Evaluate(ctx, submissionID)
	return err
}

// Channel is the part of an AMQP channel the queue dispatcher and consumer use.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// QueueDispatcher publishes evaluation requests to a durable queue.
type QueueDispatcher struct {
	channel Channel
	queue   string
	logger  *zap.SugaredLogger
}

func NewQueueDispatcher(channel Channel, queue string) *QueueDispatcher {
	return &QueueDispatcher{
		channel: channel,
		queue:   queue,
		logger:  logger.NewNamedLogger("submission-queue"),
	}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, submissionID string) error {
	body, err := json.Marshal(EvaluationMessage{SubmissionID: submissionID})
	if err != nil {
		return err
	}
	err = d.channel.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: submissionID,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
	})
	if err != nil {
		return apperrors.External("Error queueing submission", err)
	}
	d.logger.Infof("Queued submission %s on %s", submissionID, d.queue)
	return nil
}

// Consumer drains the evaluation queue.
type Consumer struct {
	channel Channel
	queue   string
	service submissionEvaluator
	logger  *zap.SugaredLogger
}

func NewConsumer(channel Channel, queue string, service submissionEvaluator) *Consumer {
	return &Consumer{
		channel: channel,
		queue:   queue,
		service: service,
		logger:  logger.NewNamedLogger("submission-consumer"),
	}
}

// Listen handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", c.queue, err)
	}
	c.logger.Infof("Listening for submissions on queue: %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Delivery channel closed")
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	var m EvaluationMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil || m.SubmissionID == "" {
		c.logger.Errorf("Dropping malformed evaluation message: %s", msg.Body)
		_ = msg.Nack(false, false)
		return
	}

	_, err := c.service.Evaluate(ctx, m.SubmissionID)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case apperrors.HTTPStatus(err) < 500:
		// Missing submission or battle; retrying cannot help.
		c.logger.Warnf("Discarding submission %s: %s", m.SubmissionID, err)
		c.giveUp(ctx, m.SubmissionID, err)
		_ = msg.Ack(false)
	default:
		requeue := !msg.Redelivered
		c.logger.Errorf("Evaluating submission %s failed (requeue=%t): %s", m.SubmissionID, requeue, err)
		if !requeue {
			c.giveUp(ctx, m.SubmissionID, err)
		}
		_ = msg.Nack(false, requeue)
	}
}

func (c *Consumer) giveUp(ctx context.Context, submissionID string, cause error) {
	if err := c.service.Fail(ctx, submissionID, "Could not evaluate submission: "+apperrors.Message(cause)); err != nil {
		c.logger.Errorf("Marking submission %s as failed: %s", submissionID, err)
	}
}

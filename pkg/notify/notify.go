// Package notify announces finished runs on an SQS queue so downstream
// consumers (site rebuilds, review queues) can pick up new artifacts.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event describes one published artifact pair.
type Event struct {
	RunID       string    `json:"run_id"`
	Job         string    `json:"job"`
	Environment string    `json:"environment"`
	Bucket      string    `json:"bucket"`
	Keys        []string  `json:"keys"`
	Placeholder bool      `json:"placeholder"`
	PublishedAt time.Time `json:"published_at"`
}

// Notifier announces published runs.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// SQSAPI is the subset of the SQS client used by SQSNotifier.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier sends each event as a JSON message to QueueURL.
type SQSNotifier struct {
	Client   SQSAPI
	QueueURL string
}

// New returns an SQSNotifier for queueURL, or Nop when queueURL is empty.
func New(cfg aws.Config, queueURL string) Notifier {
	if queueURL == "" {
		return Nop{}
	}
	return &SQSNotifier{Client: sqs.NewFromConfig(cfg), QueueURL: queueURL}
}

// Notify implements Notifier.
func (n *SQSNotifier) Notify(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapKind(err, errors.ErrPersistence, "notify: marshal event")
	}

	_, err = n.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.QueueURL),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"job":         {DataType: aws.String("String"), StringValue: aws.String(ev.Job)},
			"environment": {DataType: aws.String("String"), StringValue: aws.String(ev.Environment)},
		},
	})
	if err != nil {
		return errors.WrapKind(err, errors.ErrPersistence, "notify: send message to %s", n.QueueURL)
	}

	return nil
}

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/notify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSNotifier_SendsEvent(t *testing.T) {
	api := &fakeSQS{}
	n := &notify.SQSNotifier{Client: api, QueueURL: "https://sqs.us-east-1.amazonaws.com/1/pixel"}

	ev := notify.Event{
		RunID:       "run-1",
		Job:         "welcome",
		Environment: "beta",
		Bucket:      "beta-bucket",
		Keys:        []string{"beta/outputs/welcome_beta.html", "beta/outputs/welcome_beta.md"},
		PublishedAt: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}
	require.NoError(t, n.Notify(context.Background(), ev))

	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/1/pixel", aws.ToString(api.input.QueueUrl))
	assert.Equal(t, "welcome", aws.ToString(api.input.MessageAttributes["job"].StringValue))

	var got notify.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(api.input.MessageBody)), &got))
	assert.Equal(t, ev, got)
}

func TestSQSNotifier_Error(t *testing.T) {
	n := &notify.SQSNotifier{Client: &fakeSQS{err: errors.New("throttled")}, QueueURL: "q"}

	err := n.Notify(context.Background(), notify.Event{Job: "welcome"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
}

func TestNew_EmptyQueueIsNop(t *testing.T) {
	n := notify.New(aws.Config{}, "")

	assert.IsType(t, notify.Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), notify.Event{}))
}

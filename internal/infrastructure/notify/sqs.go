package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// SQSConfig names the queue consumed by the mail relay. QueueURL wins over
// QueueName when both are set. Region, credentials and endpoint come from the
// standard AWS environment.
type SQSConfig struct {
	QueueURL  string
	QueueName string
}

// sqsAPI is the subset of *sqs.Client used here.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EmailMessage is the JSON body published for the external mail relay.
type EmailMessage struct {
	JobID    string `json:"job_id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}

// SQSSender hands emails to an SQS queue drained by a mail relay.
type SQSSender struct {
	client   sqsAPI
	queueURL string
	now      func() time.Time
}

// NewSQSSender loads the default AWS config and resolves the queue URL.
func NewSQSSender(ctx context.Context, cfg SQSConfig) (*SQSSender, error) {
	if cfg.QueueURL == "" && cfg.QueueName == "" {
		return nil, errors.New("sqs: queue url or name is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := sqs.New(sqs.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: awsCfg.BaseEndpoint,
	})

	queueURL := cfg.QueueURL
	if queueURL == "" {
		resp, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(cfg.QueueName)})
		if err != nil {
			return nil, fmt.Errorf("sqs get queue url: %w", err)
		}
		queueURL = aws.ToString(resp.QueueUrl)
	}
	return newSQSSender(client, queueURL), nil
}

func newSQSSender(client sqsAPI, queueURL string) *SQSSender {
	return &SQSSender{client: client, queueURL: queueURL, now: time.Now}
}

func (s *SQSSender) Send(ctx context.Context, to, subject, body string) error {
	msg := EmailMessage{
		JobID:    uuid.NewString(),
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: s.now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	return nil
}

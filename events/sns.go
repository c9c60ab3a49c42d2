package events

import (
	"context"
	"encoding/json"

	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
)

type attributePublisher interface {
	PublishWithAttributes(ctx context.Context, topicArn string, message []byte, attrs map[string]string) error
}

// SNSPublisher fans events out through an SNS topic. The event type is
// attached as the event_type message attribute.
type SNSPublisher struct {
	client   attributePublisher
	topicArn string
}

func NewSNSPublisher(client *aws_pkg.SNSClient, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	var envelope struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(payload, &envelope)
	return p.client.PublishWithAttributes(ctx, p.topicArn, payload, map[string]string{
		"event_type": envelope.Type,
		"order_id":   key,
	})
}

func (p *SNSPublisher) Close() error { return nil }

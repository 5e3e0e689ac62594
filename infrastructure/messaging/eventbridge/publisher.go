package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"musicstore/domain/events"
)

// Source is the EventBridge source attached to every store event.
const Source = "musicstore.web"

// maxEntries is the PutEvents limit per call.
const maxEntries = 10

// API is the subset of the EventBridge client the publisher uses.
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher sends domain events to an EventBridge bus.
type Publisher struct {
	client  API
	busName string
	logger  *zap.Logger
}

func NewPublisher(client API, busName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, busName: busName, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += maxEntries {
		end := i + maxEntries
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishBatch(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, batch []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, event := range batch {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", event.GetEventType(), err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}
	if out.FailedEntryCount == 0 {
		return nil
	}
	for i, entry := range out.Entries {
		if entry.ErrorCode == nil {
			continue
		}
		p.logger.Error("event rejected by EventBridge",
			zap.String("event_type", batch[i].GetEventType()),
			zap.String("error_code", aws.ToString(entry.ErrorCode)),
			zap.String("error_message", aws.ToString(entry.ErrorMessage)))
	}
	return fmt.Errorf("%d of %d events rejected by EventBridge", out.FailedEntryCount, len(entries))
}

// NopPublisher drops events. It is used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }

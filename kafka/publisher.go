package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gudangkita/warehouse-service/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishStockAdjusted publishes a stock adjusted event with tracing
func (p *Publisher) PublishStockAdjusted(ctx context.Context, event StockAdjustedEvent) error {
	event.EventType = EventTypeStockAdjusted
	return p.publish(ctx, TopicStockMovements,
		fmt.Sprintf("item_%d", event.ItemID), event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.Int64("item.id", int64(event.ItemID)),
		attribute.Float64("stock.qty", event.Qty),
		attribute.String("stock.direction", event.Direction),
	)
}

// PublishShipmentDispatched publishes a shipment dispatched event with tracing
func (p *Publisher) PublishShipmentDispatched(ctx context.Context, event ShipmentDispatchedEvent) error {
	event.EventType = EventTypeShipmentDispatched
	return p.publish(ctx, TopicShipments,
		fmt.Sprintf("shipment_%d", event.ShipmentID), event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.Int64("shipment.id", int64(event.ShipmentID)),
		attribute.Int("shipment.line_count", event.LineCount),
	)
}

// PublishShipmentArrived publishes a shipment arrived event with tracing
func (p *Publisher) PublishShipmentArrived(ctx context.Context, event ShipmentArrivedEvent) error {
	event.EventType = EventTypeShipmentArrived
	return p.publish(ctx, TopicShipments,
		fmt.Sprintf("shipment_%d", event.ShipmentID), event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.Int64("shipment.id", int64(event.ShipmentID)),
	)
}

// PublishShipmentLineReturned publishes a return event with tracing
func (p *Publisher) PublishShipmentLineReturned(ctx context.Context, event ShipmentLineReturnedEvent) error {
	event.EventType = EventTypeShipmentLineReturned
	return p.publish(ctx, TopicShipments,
		fmt.Sprintf("shipment_line_%d", event.ShipmentLineID), event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.Int64("shipment_line.id", int64(event.ShipmentLineID)),
		attribute.Float64("return.qty", event.Qty),
		attribute.String("return.reason", event.Reason),
	)
}

// publish marshals the event, injects trace context into the message
// headers and sends it synchronously.
func (p *Publisher) publish(ctx context.Context, topic, key, eventType string, eventID *string, timestamp *time.Time, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	spanAttrs := append([]attribute.KeyValue{
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.destination_kind", "topic"),
		attribute.String("event.type", eventType),
	}, attrs...)
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(spanAttrs...),
	)
	defer span.End()

	if *eventID == "" {
		*eventID = fmt.Sprintf("evt_%s", uuid.New().String())
	}
	*timestamp = time.Now()
	span.SetAttributes(attribute.String("event.id", *eventID))

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(*eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Logger.Info().
		Str("event_id", *eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("trace_id", span.SpanContext().TraceID().String()).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

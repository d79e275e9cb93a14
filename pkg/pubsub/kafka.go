package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/wes-io-live/pkg/log"
)

// channelToTopicAndKey converts a Redis-style channel to a Kafka topic and message key.
//
//	"engagement:room:alice:to_spawner" → topic: "engagement-to-spawner", key: "alice"
//	"spawn:room:alice:to_renderer"     → topic: "spawn-to-renderer", key: "alice"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	// Expected format: {prefix}:room:{roomID}:to_{target}
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "room" || parts[2] == "" || !strings.HasPrefix(parts[3], "to_") {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}

	topic = parts[0] + "-" + strings.ReplaceAll(parts[3], "_", "-")
	return topic, parts[2], nil
}

// kafkaSubscription tracks a single consumer subscription.
type kafkaSubscription struct {
	consumer *kafka.Consumer
	cancel   context.CancelFunc
	done     chan struct{}
}

// KafkaPubSub implements PubSub interface using Apache Kafka.
type KafkaPubSub struct {
	producer      *kafka.Producer
	subscriptions map[string]*kafkaSubscription // channel → subscription
	config        KafkaConfig
	mu            sync.Mutex
	doneCh        chan struct{}
}

// NewKafkaPubSub creates a new Kafka-based PubSub instance.
func NewKafkaPubSub(cfg KafkaConfig) (*KafkaPubSub, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kps := &KafkaPubSub{
		producer:      p,
		subscriptions: make(map[string]*kafkaSubscription),
		config:        cfg,
		doneCh:        make(chan struct{}),
	}

	go kps.deliveryReportHandler()

	if err := kps.ensureTopics(); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	return kps, nil
}

// ensureTopics creates the fixed topics if they don't exist.
func (k *KafkaPubSub) ensureTopics() error {
	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var specs []kafka.TopicSpecification
	for _, channel := range []string{EngagementChannel("_"), SpawnChannel("_")} {
		topic, _, err := channelToTopicAndKey(channel)
		if err != nil {
			return err
		}
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			l := log.L()
			l.Warn().Str("topic", r.Topic).Str("error", r.Error.String()).Msg("failed to create kafka topic")
		}
	}

	return nil
}

// deliveryReportHandler processes delivery reports from the producer.
func (k *KafkaPubSub) deliveryReportHandler() {
	for e := range k.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := log.L()
				l.Error().Err(ev.TopicPartition.Error).Msg("kafka pubsub delivery failed")
			}
		}
	}
	close(k.doneCh)
}

// Publish publishes an event to the specified channel (converted to Kafka topic + key).
// The key keeps every event of one streamer on one partition, preserving order.
func (k *KafkaPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	topic, key, err := channelToTopicAndKey(channel)
	if err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// Subscribe subscribes to a specific channel, filtering messages by key.
func (k *KafkaPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	topic, key, err := channelToTopicAndKey(channel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if existing, ok := k.subscriptions[channel]; ok {
		existing.stop()
		delete(k.subscriptions, channel)
	}

	groupID := k.config.GroupID
	if groupID == "" {
		groupID = "pubsub-default"
	}

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       k.config.Brokers,
		"group.id":                fmt.Sprintf("%s-%s", groupID, sanitizeGroupID(channel)),
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := c.Subscribe(topic, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	eventCh := make(chan *Event, 100)
	sub := &kafkaSubscription{
		consumer: c,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	k.subscriptions[channel] = sub

	go k.consumeMessages(subCtx, sub, eventCh, key)

	return eventCh, nil
}

// consumeMessages polls Kafka and forwards matching events to the channel.
func (k *KafkaPubSub) consumeMessages(ctx context.Context, sub *kafkaSubscription, eventCh chan<- *Event, filterKey string) {
	defer close(sub.done)
	defer close(eventCh)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := sub.consumer.Poll(100)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if filterKey != "" && string(e.Key) != filterKey {
				continue
			}

			var event Event
			if err := json.Unmarshal(e.Value, &event); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("kafka pubsub: failed to unmarshal event")
				continue
			}

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			}

		case kafka.Error:
			l := log.L()
			l.Error().Err(e).Int("code", int(e.Code())).Bool("fatal", e.IsFatal()).Msg("kafka pubsub error")
			if e.IsFatal() {
				return
			}

		default:
			// Offsets committed, rebalances and stats are not interesting here.
		}
	}
}

// stop cancels the poll loop, waits for it to exit and closes the consumer.
func (s *kafkaSubscription) stop() error {
	s.cancel()
	<-s.done
	return s.consumer.Close()
}

// Unsubscribe unsubscribes from a channel.
func (k *KafkaPubSub) Unsubscribe(ctx context.Context, channel string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	sub, ok := k.subscriptions[channel]
	if !ok {
		return nil
	}
	delete(k.subscriptions, channel)

	if err := sub.stop(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	return nil
}

// Close closes all subscriptions and the producer.
func (k *KafkaPubSub) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for channel, sub := range k.subscriptions {
		if err := sub.stop(); err != nil {
			errs = append(errs, err)
		}
		delete(k.subscriptions, channel)
	}

	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh

	return errors.Join(errs...)
}

var groupIDRegexp = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeGroupID replaces characters not suitable for Kafka group IDs.
func sanitizeGroupID(s string) string {
	return groupIDRegexp.ReplaceAllString(s, "-")
}

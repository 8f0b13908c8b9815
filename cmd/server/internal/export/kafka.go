package export

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/config"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// KafkaWriter abstracts *kafka.Writer for deterministic testing.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TickExporter publishes each refreshed quote to a Kafka topic so
// downstream consumers (analytics, archival) can replay the tick stream.
// Export failures are logged and never bubble into the refresh cycle.
type TickExporter struct {
	writer KafkaWriter
	logger *zap.Logger
}

func NewTickExporter(writer KafkaWriter, logger *zap.Logger) *TickExporter {
	return &TickExporter{writer: writer, logger: logger}
}

// NewKafkaWriter builds a production-tuned async writer. The topic is
// created best-effort so a fresh broker works out of the box.
func NewKafkaWriter(cfg config.KafkaConfig, logger *zap.Logger) *kafka.Writer {
	ensureTopic(cfg.Brokers[0], cfg.Topic, logger)

	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
		// Batch to reduce network IO; async keeps the refresh loop unblocked
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

func (e *TickExporter) Export(ctx context.Context, q models.Quote) {
	payload, err := json.Marshal(q)
	if err != nil {
		e.logger.Error("Tick marshal error", zap.String("symbol", q.Symbol), zap.Error(err))
		return
	}

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(q.Symbol), // Key ensures partition ordering per symbol
		Value: payload,
	})
	if err != nil {
		e.logger.Error("Kafka write error", zap.String("symbol", q.Symbol), zap.Error(err))
		return
	}
	e.logger.Debug("Exported tick", zap.String("symbol", q.Symbol), zap.Float64("price", q.Price))
}

// Close flushes the writer buffer.
func (e *TickExporter) Close() error {
	return e.writer.Close()
}

func ensureTopic(brokerAddress, topicName string, logger *zap.Logger) {
	conn, err := kafka.Dial("tcp", brokerAddress)
	if err != nil {
		logger.Warn("Failed to dial broker for topic creation", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		logger.Warn("Failed to connect to controller", zap.Error(err))
		return
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Warn("Failed to dial controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     4,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug("Topic creation info", zap.Error(err))
	}
}

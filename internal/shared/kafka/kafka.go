package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type (
	Writer  = kafka.Writer
	Reader  = kafka.Reader
	Message = kafka.Message
)

// Brokers aceita "a:9092,b:9092"
func Brokers(list string) []string {
	out := make([]string, 0, 2)
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func NewWriter(brokerList string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(Brokers(brokerList)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma fase -> mesma partição
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewReader cria um reader de consumer group; com mais de um tópico usa GroupTopics
func NewReader(brokerList string, groupID string, topics ...string) *kafka.Reader {
	rc := kafka.ReaderConfig{
		Brokers:        Brokers(brokerList),
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	}
	if len(topics) == 1 {
		rc.Topic = topics[0]
	} else {
		rc.GroupTopics = topics
	}
	return kafka.NewReader(rc)
}

// WriteJSON serializa v e publica com a chave informada
func WriteJSON(ctx context.Context, w *kafka.Writer, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	return w.WriteMessages(ctx, msg)
}

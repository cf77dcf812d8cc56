package kafka

import (
	"fmt"

	"ledger-service/src/pkg/log"

	k "gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

type producer struct {
	kafkaProducer *k.Producer
	log           log.Log
}

func NewProducer(cfg *k.ConfigMap, logger log.Log) (Producer, error) {
	p, err := k.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	// Drain delivery reports so the event channel never fills up.
	go func() {
		for e := range p.Events() {
			if m, ok := e.(*k.Message); ok && m.TopicPartition.Error != nil {
				logger.Error("kafka-producer",
					fmt.Sprintf("delivery failed: %v", m.TopicPartition.Error),
					"deliveryReport", "")
			}
		}
	}()

	return &producer{kafkaProducer: p, log: logger}, nil
}

func (p *producer) Publish(message *k.Message) error {
	return p.kafkaProducer.Produce(message, nil)
}

func (p *producer) Close() {
	p.kafkaProducer.Flush(5000)
	p.kafkaProducer.Close()
}

/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

var errPublisherClosed = errors.New("events: publisher is closed")

// KafkaConfig configures a KafkaPublisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// saramaProducer abstracts sarama.AsyncProducer for testing.
type saramaProducer interface {
	Input() chan<- *sarama.ProducerMessage
	Errors() <-chan *sarama.ProducerError
	AsyncClose()
}

// KafkaPublisher publishes sync and analytics events to Kafka using an
// async producer, so a slow or unreachable broker never blocks the sync or
// analytics pipeline it is reporting on.
type KafkaPublisher struct {
	producer saramaProducer
	topic    string
	log      *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher dials brokers and returns a ready KafkaPublisher.
func NewKafkaPublisher(cfg KafkaConfig, log *zap.SugaredLogger) (*KafkaPublisher, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("events: create kafka producer: %w", err)
	}
	return newKafkaPublisherWithProducer(producer, cfg.Topic, log), nil
}

func newKafkaPublisherWithProducer(producer saramaProducer, topic string, log *zap.SugaredLogger) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, log: log}
	p.wg.Add(1)
	go p.drainErrors()
	return p
}

// Publish sends event to Kafka, keyed by Table or EntityID so ordering is
// preserved per entity. Non-blocking.
func (p *KafkaPublisher) Publish(event Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return errPublisherClosed
	}
	p.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
	}
	if key := event.Table; key != "" {
		msg.Key = sarama.StringEncoder(key)
	} else if event.EntityID != "" {
		msg.Key = sarama.StringEncoder(event.EntityID)
	}

	p.producer.Input() <- msg
	return nil
}

// Close shuts down the producer and waits for the error-drain goroutine.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for prodErr := range p.producer.Errors() {
		p.log.Errorw("kafka publish failed", "topic", p.topic, "error", prodErr.Err)
	}
}

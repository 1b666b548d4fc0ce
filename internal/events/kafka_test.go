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
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAsyncProducer implements saramaProducer for testing.
type mockAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newMockAsyncProducer() *mockAsyncProducer {
	return &mockAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 10),
		errors: make(chan *sarama.ProducerError, 10),
	}
}

func (m *mockAsyncProducer) Input() chan<- *sarama.ProducerMessage { return m.input }
func (m *mockAsyncProducer) Errors() <-chan *sarama.ProducerError  { return m.errors }
func (m *mockAsyncProducer) AsyncClose()                          { close(m.errors) }

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger.Sugar()
}

func TestKafkaPublisher_PublishSendsMarshaledEventKeyedByTable(t *testing.T) {
	mock := newMockAsyncProducer()
	pub := newKafkaPublisherWithProducer(mock, "etl-events", testLogger(t))

	event := Event{
		Type:      TypeSyncCompleted,
		Timestamp: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Table:     "users",
	}
	require.NoError(t, pub.Publish(event))

	msg := <-mock.input
	assert.Equal(t, "etl-events", msg.Topic)
	assert.Equal(t, sarama.StringEncoder("users"), msg.Key)

	data, err := msg.Value.Encode()
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event.Type, got.Type)
	assert.True(t, event.Timestamp.Equal(got.Timestamp))
}

func TestKafkaPublisher_PublishAfterCloseErrors(t *testing.T) {
	mock := newMockAsyncProducer()
	pub := newKafkaPublisherWithProducer(mock, "etl-events", testLogger(t))

	require.NoError(t, pub.Close())
	err := pub.Publish(Event{Type: TypeAnalyticsUpserted})
	assert.ErrorIs(t, err, errPublisherClosed)
}

func TestNoopPublisher_NeverErrors(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(Event{Type: TypeSyncCompleted}))
	assert.NoError(t, p.Close())
}

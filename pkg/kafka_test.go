package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewKafkaPublisher(t *testing.T) {
	assert.Nil(t, NewKafkaPublisher("", "checkout"))
	assert.Nil(t, NewKafkaPublisher(" , ", "checkout"))

	publisher := NewKafkaPublisher("localhost:9092, localhost:9093", "checkout")
	if assert.NotNil(t, publisher) {
		assert.Equal(t, "checkout", publisher.writer.Topic)
		assert.Equal(t, nil, publisher.Close())
	}
}

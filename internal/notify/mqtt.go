package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"digipiggy-hub/pkg/mqtt"

	"github.com/google/uuid"
)

// MQTTNotifier publishes device messages to a broker the physical piggy
// devices subscribe to, under <prefix>/devices/<id>/messages.
type MQTTNotifier struct {
	client      *mqtt.Client
	topicPrefix string
}

func NewMQTTNotifier(client *mqtt.Client, topicPrefix string) *MQTTNotifier {
	if topicPrefix == "" {
		topicPrefix = "digipiggy"
	}
	return &MQTTNotifier{client: client, topicPrefix: topicPrefix}
}

func (n *MQTTNotifier) SendMessage(ctx context.Context, deviceID, msg string) error {
	payload, err := json.Marshal(messagePayload{
		ID:  uuid.New().String(),
		Msg: msg,
	})
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s/devices/%s/messages", n.topicPrefix, deviceID)
	return n.client.Publish(topic, 1, false, payload)
}

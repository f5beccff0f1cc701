package notification

import (
	"context"
	"fmt"

	"classbook/models"

	"firebase.google.com/go/v4/messaging"
)

// FCMSender is satisfied by *messaging.Client.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushChannel publishes to the per-user FCM topic the mobile app subscribes to.
type PushChannel struct {
	client FCMSender
}

// NewPushChannel returns nil when no FCM client is configured.
func NewPushChannel(client FCMSender) *PushChannel {
	if client == nil {
		return nil
	}
	return &PushChannel{client: client}
}

func (c *PushChannel) Name() string { return "push" }

// UserTopic is the FCM topic for a user's devices.
func UserTopic(userID string) string {
	return "user-" + userID
}

func (c *PushChannel) Send(ctx context.Context, msg models.Message) error {
	if msg.UserID == "" {
		return ErrNoRecipient
	}

	fcm := &messaging.Message{
		Topic: UserTopic(msg.UserID),
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "bookings",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := c.client.Send(ctx, fcm); err != nil {
		return fmt.Errorf("fcm send to %s: %w", fcm.Topic, err)
	}
	return nil
}

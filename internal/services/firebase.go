package services

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// PushClient sends Firebase Cloud Messaging notifications. A nil client or
// one built without credentials is disabled and drops messages.
type PushClient struct {
	client *messaging.Client
	log    *slog.Logger
}

// InitFirebase builds a push client from a service account file. An empty
// path disables push delivery.
func InitFirebase(ctx context.Context, credentialsPath string, log *slog.Logger) (*PushClient, error) {
	if log == nil {
		log = slog.Default()
	}
	if credentialsPath == "" {
		log.Warn("FIREBASE_SERVICE_ACCOUNT_PATH not set, push notifications disabled")
		return &PushClient{log: log}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info("firebase cloud messaging initialized")
	return &PushClient{client: client, log: log}, nil
}

func (p *PushClient) Enabled() bool {
	return p != nil && p.client != nil
}

func (p *PushClient) Send(ctx context.Context, token string, msg PushMessage) error {
	if !p.Enabled() {
		return nil
	}
	id, err := p.client.Send(ctx, buildPushMessage(token, msg))
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	p.log.Debug("push notification sent", "messageId", id, "type", msg.Data["type"])
	return nil
}

func buildPushMessage(token string, msg PushMessage) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Token: token,
		Data:  msg.Data,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID:             "rosetta_default",
				Sound:                 "default",
				DefaultSound:          true,
				Priority:              messaging.PriorityHigh,
				Icon:                  "ic_stat_logo",
				Color:                 "#0F766E",
				Tag:                   msg.Data["type"],
				DefaultVibrateTimings: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:          "default",
					Badge:          &badge,
					MutableContent: true,
				},
			},
		},
	}
}

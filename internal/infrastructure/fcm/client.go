package fcm

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Client wraps Firebase Cloud Messaging. Without credentials it stays in
// a disabled state where IsEnabled reports false and sends fail.
type Client struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewClient initializes Firebase Cloud Messaging. Credentials come from
// FIREBASE_CREDENTIALS_PATH or, failing that, inline JSON in
// FIREBASE_CREDENTIALS_JSON written to a temp file.
func NewClient(log zerolog.Logger) (*Client, error) {
	ctx := context.Background()
	log = log.With().Str("component", "fcm").Logger()

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		if credJSON == "" {
			log.Warn().Msg("No Firebase credentials found, FCM disabled")
			return &Client{client: nil, log: log}, nil
		}

		tmpFile, err := os.CreateTemp("", "firebase-credentials-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		defer tmpFile.Close()

		if _, err := tmpFile.Write([]byte(credJSON)); err != nil {
			return nil, fmt.Errorf("failed to write credentials: %w", err)
		}

		credPath = tmpFile.Name()
	}

	opt := option.WithCredentialsFile(credPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info().Msg("Firebase Cloud Messaging initialized")
	return &Client{client: client, log: log}, nil
}

// SendNotification sends a push notification to a single device token.
func (c *Client) SendNotification(token, title, body string, data map[string]string) error {
	if c.client == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "stock_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := c.client.Send(context.Background(), message)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	c.log.Debug().Str("response", response).Msg("Sent message")
	return nil
}

// SendMulticast sends a notification to multiple tokens.
func (c *Client) SendMulticast(tokens []string, title, body string, data map[string]string) error {
	if c.client == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "stock_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := c.client.SendEachForMulticast(context.Background(), message)
	if err != nil {
		return fmt.Errorf("error sending multicast: %w", err)
	}

	c.log.Debug().
		Int("success", response.SuccessCount).
		Int("failures", response.FailureCount).
		Msg("Sent multicast")
	return nil
}

// IsEnabled reports whether the client holds working credentials.
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

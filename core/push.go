package core

import "context"

type (
	// PushMessage is a notification delivered to a single device token.
	PushMessage struct {
		Token    string
		Title    string
		Body     string
		Type     string
		DeepLink string
	}

	// PushService is any service that can deliver push notifications.
	PushService interface {
		Send(ctx context.Context, msg PushMessage) error
	}
)

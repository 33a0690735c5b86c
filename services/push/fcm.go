package pushsvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/foe05/HGMH-App/core"
)

type fcmService struct {
	client *messaging.Client
}

var _ core.PushService = (*fcmService)(nil)

// NewFCMService delivers push messages through Firebase Cloud Messaging.
func NewFCMService(ctx context.Context, conf *core.Config) (core.PushService, error) {
	var opts []option.ClientOption
	if conf.Push.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Push.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing messaging client")
	}
	return &fcmService{client: client}, nil
}

func (svc fcmService) Send(ctx context.Context, msg core.PushMessage) error {
	data := map[string]string{"type": msg.Type}
	if msg.DeepLink != "" {
		data["deep_link"] = msg.DeepLink
	}
	_, err := svc.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	return errors.Wrap(err, "sending FCM message")
}

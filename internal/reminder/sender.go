package reminder

import (
	"context"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/novado-app/novado-server/internal/config"
)

const defaultSubscriber = "mailto:admin@novado.app"

// Sender delivers an opaque payload to one push subscription. Delivery
// success is not inspected beyond the returned error.
type Sender interface {
	Send(ctx context.Context, sub *PushSubscription, payload []byte) error
}

type webPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewWebPushSender reads VAPID configuration from the environment. With no
// private key configured the sender silently drops every payload, so the
// rest of the reminder pipeline keeps working in development setups.
func NewWebPushSender() Sender {
	subscriber := os.Getenv("VAPID_EMAIL")
	if subscriber == "" {
		subscriber = defaultSubscriber
	}
	return &webPushSender{
		publicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		privateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		subscriber: subscriber,
	}
}

func (s *webPushSender) Send(ctx context.Context, sub *PushSubscription, payload []byte) error {
	log := config.WithContext(ctx)

	if s.privateKey == "" {
		log.Debug("VAPID_PRIVATE_KEY not configured, skipping push")
		return nil
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

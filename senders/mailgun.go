package senders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// mailgunSender covers subscribers who registered an email address instead of
// a chat identity. Channel alerts have no email equivalent.
type mailgunSender struct {
	base
}

func (e *mailgunSender) SendDirect(ctx context.Context, recipient string, n Notification) (string, error) {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	subject := fmt.Sprintf("FleetWatch: %s is %s", n.VehicleName, n.Status)
	// Create message with empty body first, then SetHtml so the MIME type is
	// assigned properly.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, subject, "", recipient)
	message.SetHtml(fmt.Sprintf(
		"<p>The vehicle <b>%s</b> is now <b>%s</b>.</p><p>You will only be emailed again the next time it becomes available.</p>",
		n.VehicleName, n.Status,
	))

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, id, err := mg.Send(ctx, message)
	return id, err
}

func (e *mailgunSender) SendChannelAlert(ctx context.Context, channelID, roleID string, n Notification) (string, error) {
	return "", errors.New("email platform does not support channel alerts")
}

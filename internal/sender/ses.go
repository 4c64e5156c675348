package sender

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender mails the plain-text body to email subscribers.
type SESSender struct {
	client    SESService
	fromEmail string
}

func NewSESSender(client SESService, fromEmail string) *SESSender {
	return &SESSender{client: client, fromEmail: fromEmail}
}

func (s *SESSender) Channel() string {
	return "ses"
}

func (s *SESSender) Send(ctx context.Context, msg Message) (*Delivery, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return nil, fmt.Errorf("ses send email: %w", err)
	}

	id := aws.ToString(out.MessageId)
	return &Delivery{
		Address:   msg.Recipient,
		MessageID: id,
		Delivered: id != "",
		Status:    "ACCEPTED",
	}, nil
}

package sender

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint/types"
)

type PinpointService interface {
	SendMessages(ctx context.Context, params *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error)
}

// PinpointSender sends SMS through a Pinpoint project and reads the
// per-address result from the response.
type PinpointSender struct {
	client            PinpointService
	applicationID     string
	originationNumber string
	senderID          string
}

func NewPinpointSender(client PinpointService, applicationID, originationNumber, senderID string) *PinpointSender {
	return &PinpointSender{
		client:            client,
		applicationID:     applicationID,
		originationNumber: originationNumber,
		senderID:          senderID,
	}
}

func (s *PinpointSender) Channel() string {
	return "pinpoint"
}

func (s *PinpointSender) Send(ctx context.Context, msg Message) (*Delivery, error) {
	sms := &types.SMSMessage{
		Body:        aws.String(msg.Body),
		MessageType: types.MessageTypeTransactional,
	}
	if s.originationNumber != "" {
		sms.OriginationNumber = aws.String(s.originationNumber)
	}
	if s.senderID != "" {
		sms.SenderId = aws.String(s.senderID)
	}

	out, err := s.client.SendMessages(ctx, &pinpoint.SendMessagesInput{
		ApplicationId: aws.String(s.applicationID),
		MessageRequest: &types.MessageRequest{
			Addresses: map[string]types.AddressConfiguration{
				msg.Recipient: {ChannelType: types.ChannelTypeSms},
			},
			MessageConfiguration: &types.DirectMessageConfiguration{
				SMSMessage: sms,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pinpoint send messages: %w", err)
	}

	d := &Delivery{Address: msg.Recipient, Status: "MISSING"}
	if out.MessageResponse == nil {
		return d, nil
	}
	res, ok := out.MessageResponse.Result[msg.Recipient]
	if !ok {
		return d, nil
	}

	d.MessageID = aws.ToString(res.MessageId)
	d.Status = string(res.DeliveryStatus)
	d.Delivered = res.DeliveryStatus == types.DeliveryStatusSuccessful
	if !d.Delivered && res.StatusMessage != nil {
		d.Status += ": " + aws.ToString(res.StatusMessage)
	}
	return d, nil
}

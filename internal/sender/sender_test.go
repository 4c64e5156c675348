package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint"
	pptypes "github.com/aws/aws-sdk-go-v2/service/pinpoint/types"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type MockPinpointService struct {
	SendMessagesFunc func(ctx context.Context, params *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error)
}

func (m *MockPinpointService) SendMessages(ctx context.Context, params *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error) {
	return m.SendMessagesFunc(ctx, params, optFns...)
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func pinpointResult(address string, status pptypes.DeliveryStatus) *pinpoint.SendMessagesOutput {
	return &pinpoint.SendMessagesOutput{
		MessageResponse: &pptypes.MessageResponse{
			Result: map[string]pptypes.MessageResult{
				address: {
					DeliveryStatus: status,
					MessageId:      aws.String("msg-1"),
					StatusMessage:  aws.String("carrier said " + string(status)),
				},
			},
		},
	}
}

var testMessage = Message{Recipient: "+15551230000", Subject: "Slots", Body: "Town Hall: https://example.org/l1\n"}

// ==========================
// SNS
// ==========================

func TestSNSSender_Send(t *testing.T) {
	var got *sns.PublishInput
	s := NewSNSSender(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{MessageId: aws.String("abc")}, nil
		},
	}, "FINDSLOTS")

	d, err := s.Send(context.Background(), testMessage)
	require.NoError(t, err)
	assert.True(t, d.Delivered)
	assert.Equal(t, "abc", d.MessageID)

	assert.Equal(t, "+15551230000", aws.ToString(got.PhoneNumber))
	assert.Equal(t, "Transactional", aws.ToString(got.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "FINDSLOTS", aws.ToString(got.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSNSSender_Errors(t *testing.T) {
	s := NewSNSSender(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("InvalidParameter")
		},
	}, "")

	_, err := s.Send(context.Background(), testMessage)
	assert.ErrorContains(t, err, "InvalidParameter")

	empty := NewSNSSender(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			_, hasSender := params.MessageAttributes["AWS.SNS.SMS.SenderID"]
			assert.False(t, hasSender)
			return &sns.PublishOutput{}, nil
		},
	}, "")

	d, err := empty.Send(context.Background(), testMessage)
	require.NoError(t, err)
	assert.False(t, d.Delivered)
}

// ==========================
// Pinpoint
// ==========================

func TestPinpointSender_Send(t *testing.T) {
	tests := []struct {
		name          string
		output        *pinpoint.SendMessagesOutput
		wantDelivered bool
		wantStatus    string
	}{
		{
			name:          "successful",
			output:        pinpointResult("+15551230000", pptypes.DeliveryStatusSuccessful),
			wantDelivered: true,
			wantStatus:    "SUCCESSFUL",
		},
		{
			name:       "permanent failure for address",
			output:     pinpointResult("+15551230000", pptypes.DeliveryStatusPermanentFailure),
			wantStatus: "PERMANENT_FAILURE: carrier said PERMANENT_FAILURE",
		},
		{
			name:       "result for another address",
			output:     pinpointResult("+15559990000", pptypes.DeliveryStatusSuccessful),
			wantStatus: "MISSING",
		},
		{
			name:       "no message response",
			output:     &pinpoint.SendMessagesOutput{},
			wantStatus: "MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *pinpoint.SendMessagesInput
			s := NewPinpointSender(&MockPinpointService{
				SendMessagesFunc: func(ctx context.Context, params *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error) {
					got = params
					return tt.output, nil
				},
			}, "app-1", "+18005550100", "")

			d, err := s.Send(context.Background(), testMessage)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelivered, d.Delivered)
			assert.Equal(t, tt.wantStatus, d.Status)

			assert.Equal(t, "app-1", aws.ToString(got.ApplicationId))
			sms := got.MessageRequest.MessageConfiguration.SMSMessage
			assert.Equal(t, pptypes.MessageTypeTransactional, sms.MessageType)
			assert.Equal(t, "+18005550100", aws.ToString(sms.OriginationNumber))
			assert.Nil(t, sms.SenderId)
			assert.Equal(t, pptypes.ChannelTypeSms, got.MessageRequest.Addresses["+15551230000"].ChannelType)
		})
	}
}

func TestPinpointSender_Error(t *testing.T) {
	s := NewPinpointSender(&MockPinpointService{
		SendMessagesFunc: func(ctx context.Context, params *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error) {
			return nil, errors.New("TooManyRequestsException")
		},
	}, "app-1", "", "")

	_, err := s.Send(context.Background(), testMessage)
	assert.ErrorContains(t, err, "TooManyRequestsException")
}

// ==========================
// SES & Router
// ==========================

func TestSESSender_Send(t *testing.T) {
	var got *ses.SendEmailInput
	s := NewSESSender(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			got = params
			return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
		},
	}, "noreply@example.org")

	d, err := s.Send(context.Background(), Message{Recipient: "pat@example.org", Subject: "Slots", Body: "body"})
	require.NoError(t, err)
	assert.True(t, d.Delivered)
	assert.Equal(t, []string{"pat@example.org"}, got.Destination.ToAddresses)
	assert.Equal(t, "noreply@example.org", aws.ToString(got.Source))
	assert.Equal(t, "Slots", aws.ToString(got.Message.Subject.Data))
}

type stubSender struct {
	channel string
	sent    []string
}

func (s *stubSender) Send(ctx context.Context, msg Message) (*Delivery, error) {
	s.sent = append(s.sent, msg.Recipient)
	return &Delivery{Address: msg.Recipient, Delivered: true}, nil
}

func (s *stubSender) Channel() string { return s.channel }

func TestRouter(t *testing.T) {
	sms := &stubSender{channel: "pinpoint"}
	email := &stubSender{channel: "ses"}
	r := NewRouter(sms, email)
	ctx := context.Background()

	_, err := r.Send(ctx, Message{Recipient: "+15551230000"})
	require.NoError(t, err)
	_, err = r.Send(ctx, Message{Recipient: "pat@example.org"})
	require.NoError(t, err)

	assert.Equal(t, []string{"+15551230000"}, sms.sent)
	assert.Equal(t, []string{"pat@example.org"}, email.sent)
	assert.Equal(t, "ses", r.ChannelFor("pat@example.org"))

	smsOnly := NewRouter(sms, nil)
	_, err = smsOnly.Send(ctx, Message{Recipient: "pat@example.org"})
	assert.ErrorContains(t, err, "no email channel configured")
	assert.Equal(t, "none", smsOnly.ChannelFor("pat@example.org"))
}

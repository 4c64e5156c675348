// Package sender delivers rendered notifications through AWS messaging services.
package sender

import (
	"context"
	"fmt"
	"strings"
)

// Message is one rendered notification for one address.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Delivery is the provider's answer for a single address. Only Delivered
// counts as success; an accepted request with a rejected address does not.
type Delivery struct {
	Address   string
	MessageID string
	Delivered bool
	Status    string
}

// Sender sends one message.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Delivery, error)
	Channel() string
}

// Router sends email addresses through the email sender and everything else as SMS.
type Router struct {
	sms   Sender
	email Sender
}

func NewRouter(sms, email Sender) *Router {
	return &Router{sms: sms, email: email}
}

func (r *Router) Send(ctx context.Context, msg Message) (*Delivery, error) {
	s, err := r.pick(msg.Recipient)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, msg)
}

// ChannelFor names the channel a recipient would be routed to.
func (r *Router) ChannelFor(recipient string) string {
	s, err := r.pick(recipient)
	if err != nil {
		return "none"
	}
	return s.Channel()
}

func (r *Router) Channel() string {
	return "router"
}

func (r *Router) pick(recipient string) (Sender, error) {
	if strings.Contains(recipient, "@") {
		if r.email == nil {
			return nil, fmt.Errorf("no email channel configured for %q", recipient)
		}
		return r.email, nil
	}
	if r.sms == nil {
		return nil, fmt.Errorf("no sms channel configured")
	}
	return r.sms, nil
}

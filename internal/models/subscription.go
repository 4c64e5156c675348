// internal/models/subscription.go
package models

// Pending is the only sent-flag value ever stored. A subscription moves to
// "sent" by being deleted.
const Pending = 0

// Subscription is a standing request from one recipient to be told about one location.
type Subscription struct {
	LocationID string `json:"location" dynamodbav:"location"`
	IsSent     int    `json:"isSent" dynamodbav:"isSent"`
	Recipient  string `json:"sms" dynamodbav:"sms"`
	Language   string `json:"lang" dynamodbav:"lang"`
}

// internal/models/batch.go
package models

// BatchStatus tracks one recipient's dispatch.
type BatchStatus string

const (
	StatusUnsent  BatchStatus = "unsent"
	StatusPending BatchStatus = "pending"
	StatusSuccess BatchStatus = "success"
	StatusFailed  BatchStatus = "failed"
)

// BatchLocation is one line of a recipient's message.
type BatchLocation struct {
	LocationID string `json:"uuid"`
	Name       string `json:"name"`
	URL        string `json:"url"`
}

// RecipientBatch is every eligible location one recipient subscribed to,
// merged into a single message.
type RecipientBatch struct {
	Recipient string          `json:"recipient"`
	Language  string          `json:"language"`
	Locations []BatchLocation `json:"locations"`
	Status    BatchStatus     `json:"status"`
	MessageID string          `json:"messageId,omitempty"`
	Err       error           `json:"-"`
}

// HasLocation reports whether locationID is already part of the batch.
func (b *RecipientBatch) HasLocation(locationID string) bool {
	for _, l := range b.Locations {
		if l.LocationID == locationID {
			return true
		}
	}
	return false
}

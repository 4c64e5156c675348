// internal/models/location.go
package models

// Location is a place whose availability is tracked.
type Location struct {
	ID   string `json:"uuid"`
	Name string `json:"name"`
	URL  string `json:"linkUrl"`
	// Threshold is nil when no threshold is configured. A configured 0 is a
	// real threshold: any positive slot count exceeds it.
	Threshold *int `json:"notificationThreshold,omitempty"`
}

// EligibleLocation is a location that crossed its threshold in this run.
type EligibleLocation struct {
	ID   string `json:"uuid"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// internal/workers/availability/notify-subscribers/models.go
package notifysubscribers

type Input struct {
	State string `json:"state"`
	Init  bool   `json:"init"`
}

type Output struct {
	RunID      string `json:"notifyRunId"`
	Stage      string `json:"notifyStage"`
	Skipped    bool   `json:"notifySkipped"`
	Eligible   int    `json:"eligibleLocations"`
	Recipients int    `json:"recipients"`
	Sent       int    `json:"notificationsSent"`
	Failed     int    `json:"notificationsFailed"`
	Retired    int    `json:"subscriptionsRetired"`
}

// internal/workers/availability/create-subscription/models.go
package createsubscription

import "availability-notifier/internal/common/validation"

type Input struct {
	Location string `json:"location"`
	SMS      string `json:"sms"`
	Lang     string `json:"lang"`
}

type Output struct {
	Subscribed bool   `json:"subscribed"`
	Location   string `json:"location"`
	Recipient  string `json:"recipient"`
	Language   string `json:"language"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Required:             []string{"location", "sms", "lang"},
		AdditionalProperties: true,
		Properties: map[string]validation.Property{
			"location": {
				Type:        "string",
				Description: "Location UUID",
				MinLength:   validation.IntPtr(32),
				MaxLength:   validation.IntPtr(36),
			},
			"sms": {
				Type:        "string",
				Description: "Phone number, any formatting",
				MinLength:   validation.IntPtr(10),
				MaxLength:   validation.IntPtr(32),
			},
			"lang": {
				Type:        "string",
				Description: "Two letter language code",
				Pattern:     "^[A-Za-z]{2}$",
			},
		},
	}
}

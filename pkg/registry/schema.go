// pkg/registry/schema.go
package registry

type TemplateRegistry struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Templates   []MessageTemplate `json:"templates"`
}

type MessageTemplate struct {
	Language string `json:"language"`
	Subject  string `json:"subject"`
	Header   string `json:"header"`
	Footer   string `json:"footer"`
}

// internal/common/aws/pinpoint.go
package aws

import (
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint"
)

func NewPinpointClient(cfg awssdk.Config) *pinpoint.Client {
	return pinpoint.NewFromConfig(cfg)
}

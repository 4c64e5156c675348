// internal/common/aws/dynamodb.go
package aws

import (
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func NewDynamoDBClient(cfg awssdk.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

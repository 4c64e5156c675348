package source

import (
	"context"
	"fmt"

	"availability-notifier/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used to read snapshots.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads <region>/availability.json and <region>/locations.json from a bucket.
type S3Source struct {
	client S3API
	bucket string
}

func NewS3Source(client S3API, bucket string) *S3Source {
	return &S3Source{client: client, bucket: bucket}
}

func (s *S3Source) GetAvailability(ctx context.Context, region string) ([]models.LocationAvailability, error) {
	out, err := s.get(ctx, objectKey(region, availabilityObject))
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return decodeAvailability(out.Body)
}

func (s *S3Source) GetLocations(ctx context.Context, region string) ([]models.Location, error) {
	out, err := s.get(ctx, objectKey(region, locationsObject))
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return decodeLocations(out.Body)
}

func (s *S3Source) get(ctx context.Context, key string) (*s3.GetObjectOutput, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out, nil
}

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"availability-notifier/internal/models"

	commonhttp "availability-notifier/internal/common/http"
)

// HTTPSource reads the same snapshot layout from a static HTTP mirror.
type HTTPSource struct {
	client  *commonhttp.Client
	baseURL string
}

func NewHTTPSource(client *commonhttp.Client, baseURL string) *HTTPSource {
	return &HTTPSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *HTTPSource) GetAvailability(ctx context.Context, region string) ([]models.LocationAvailability, error) {
	body, err := s.get(ctx, objectKey(region, availabilityObject))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodeAvailability(body)
}

func (s *HTTPSource) GetLocations(ctx context.Context, region string) ([]models.Location, error) {
	body, err := s.get(ctx, objectKey(region, locationsObject))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodeLocations(body)
}

func (s *HTTPSource) get(ctx context.Context, path string) (io.ReadCloser, error) {
	url := s.baseURL + "/" + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fleetwatch/internal/domain"
)

// RemoteConfigSource fetches the trip-config document from a URL and
// hydrates event timelines from the local data directory. This lets an
// operator repoint the roster without redeploying the telemetry files.
type RemoteConfigSource struct {
	url     string
	dataDir string
	client  *http.Client
}

func NewRemoteConfigSource(url, dataDir string) *RemoteConfigSource {
	return &RemoteConfigSource{
		url:     url,
		dataDir: dataDir,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RemoteConfigSource) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build config request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trip config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch trip config: status %d", resp.StatusCode)
	}

	var configs []TripConfig
	if err := json.NewDecoder(resp.Body).Decode(&configs); err != nil {
		return nil, fmt.Errorf("parse remote trip config: %w", err)
	}
	return hydrate(configs, s.dataDir), nil
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fleetwatch/internal/domain"
)

// FileSource reads a trip-config document plus per-trip telemetry files
// from a local data directory.
type FileSource struct {
	configPath string
	dataDir    string
}

func NewFileSource(configPath, dataDir string) *FileSource {
	return &FileSource{configPath: configPath, dataDir: dataDir}
}

func (s *FileSource) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("read trip config: %w", err)
	}
	var configs []TripConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse trip config: %w", err)
	}
	return hydrate(configs, s.dataDir), nil
}

// hydrate loads each configured trip's telemetry file. Invalid configs
// and unreadable files are skipped with a warning; one broken trip must
// not take down the roster.
func hydrate(configs []TripConfig, dataDir string) []domain.Trip {
	var trips []domain.Trip
	for _, cfg := range configs {
		if !cfg.valid() || cfg.FileName == "" {
			slog.Warn("skipping invalid trip config", "trip_id", cfg.ID)
			continue
		}
		raw, err := readRawEvents(filepath.Join(dataDir, cfg.FileName))
		if err != nil {
			slog.Warn("skipping trip, telemetry file unreadable",
				"trip_id", cfg.ID, "file", cfg.FileName, "error", err)
			continue
		}
		if len(raw) == 0 {
			continue
		}
		trip := buildTrip(cfg, raw)
		trips = append(trips, trip)
		slog.Info("loaded trip telemetry", "trip_id", cfg.ID, "events", len(trip.Events))
	}
	return trips
}

func readRawEvents(path string) ([]RawEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse telemetry: %w", err)
	}
	return raw, nil
}

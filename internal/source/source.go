package source

import (
	"context"
	"log/slog"

	"fleetwatch/internal/domain"
)

// Source loads a trip roster with fully materialized, canonical event
// timelines. The engine does not care which implementation produced
// the roster.
type Source interface {
	LoadTrips(ctx context.Context) ([]domain.Trip, error)
}

// TripConfig describes one roster entry as published by the config
// document (remote or local).
type TripConfig struct {
	ID                string `json:"id"`
	TripName          string `json:"tripName"`
	DriverName        string `json:"driverName"`
	VehicleModel      string `json:"vehicleModel"`
	StartLocationName string `json:"startLocationName"`
	EndLocationName   string `json:"endLocationName"`
	MaxEvents         int    `json:"maxEvents"`
	FileName          string `json:"fileName"`
}

func (c TripConfig) valid() bool {
	return c.ID != "" && c.TripName != ""
}

// Chain tries sources in order and returns the first non-empty roster.
// Individual source failures are logged for operator visibility and
// skipped; a fully exhausted chain yields an empty roster, never an
// error, so the engine can idle instead of crashing.
type Chain struct {
	sources []Source
}

func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	for _, src := range c.sources {
		trips, err := src.LoadTrips(ctx)
		if err != nil {
			slog.Warn("trip source failed, falling through", "error", err)
			continue
		}
		if len(trips) > 0 {
			return trips, nil
		}
	}
	slog.Warn("all trip sources exhausted, starting with empty roster")
	return nil, nil
}

// buildTrip assembles a Trip from its config and raw events, honoring
// the per-trip maxEvents cap.
func buildTrip(cfg TripConfig, raw []RawEvent) domain.Trip {
	if cfg.MaxEvents > 0 && len(raw) > cfg.MaxEvents {
		raw = raw[:cfg.MaxEvents]
	}
	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, Convert(r, cfg.ID))
	}
	return domain.Trip{
		ID:                cfg.ID,
		TripName:          cfg.TripName,
		DriverName:        cfg.DriverName,
		VehicleModel:      cfg.VehicleModel,
		StartLocationName: cfg.StartLocationName,
		EndLocationName:   cfg.EndLocationName,
		Events:            events,
	}
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"fleetwatch/internal/domain"
)

// DynamoDBAPI is the subset of the DynamoDB client the roster source
// needs, kept as an interface for mocking.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// rosterItem is one DynamoDB roster row: trip metadata plus the raw
// telemetry serialized as a JSON string attribute.
type rosterItem struct {
	ID                string `dynamodbav:"id"`
	TripName          string `dynamodbav:"trip_name"`
	DriverName        string `dynamodbav:"driver_name"`
	VehicleModel      string `dynamodbav:"vehicle_model"`
	StartLocationName string `dynamodbav:"start_location_name"`
	EndLocationName   string `dynamodbav:"end_location_name"`
	MaxEvents         int    `dynamodbav:"max_events"`
	EventsJSON        string `dynamodbav:"events_json"`
}

// DynamoSource loads the trip roster from a DynamoDB table.
type DynamoSource struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoSource(client DynamoDBAPI, tableName string) *DynamoSource {
	return &DynamoSource{client: client, tableName: tableName}
}

func (s *DynamoSource) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan trip roster: %w", err)
	}

	var items []rosterItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roster items: %w", err)
	}

	var trips []domain.Trip
	for _, item := range items {
		cfg := TripConfig{
			ID:                item.ID,
			TripName:          item.TripName,
			DriverName:        item.DriverName,
			VehicleModel:      item.VehicleModel,
			StartLocationName: item.StartLocationName,
			EndLocationName:   item.EndLocationName,
			MaxEvents:         item.MaxEvents,
		}
		if !cfg.valid() {
			slog.Warn("skipping invalid roster item", "trip_id", item.ID)
			continue
		}
		var raw []RawEvent
		if err := json.Unmarshal([]byte(item.EventsJSON), &raw); err != nil {
			slog.Warn("skipping roster item, bad telemetry payload",
				"trip_id", item.ID, "error", err)
			continue
		}
		if len(raw) == 0 {
			continue
		}
		trips = append(trips, buildTrip(cfg, raw))
	}
	return trips, nil
}

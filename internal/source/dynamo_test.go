package source

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockDynamoDBClient struct {
	mock.Mock
}

func (m *mockDynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.ScanOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func rosterRow(id, name, eventsJSON string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":          &types.AttributeValueMemberS{Value: id},
		"trip_name":   &types.AttributeValueMemberS{Value: name},
		"events_json": &types.AttributeValueMemberS{Value: eventsJSON},
	}
}

func TestDynamoSource_LoadTrips(t *testing.T) {
	client := new(mockDynamoDBClient)
	client.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			rosterRow("trip-1", "Haul",
				`[{"event_id":"e1","event_type":"trip_started","timestamp":"2025-11-08T17:00:00Z"}]`),
			rosterRow("trip-2", "Bad Payload", `not-json`),
			rosterRow("", "No ID", `[]`),
		},
	}, nil)

	src := NewDynamoSource(client, "fleet-trips")
	trips, err := src.LoadTrips(context.Background())

	assert.NoError(t, err)
	assert.Len(t, trips, 1)
	assert.Equal(t, "trip-1", trips[0].ID)
	assert.Equal(t, "Haul", trips[0].TripName)
	assert.Len(t, trips[0].Events, 1)
	client.AssertExpectations(t)
}

func TestDynamoSource_ScanError(t *testing.T) {
	client := new(mockDynamoDBClient)
	client.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	src := NewDynamoSource(client, "fleet-trips")
	trips, err := src.LoadTrips(context.Background())

	assert.Error(t, err)
	assert.Nil(t, trips)
	client.AssertExpectations(t)
}

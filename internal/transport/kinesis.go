package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"

	"fleetwatch/internal/domain"
)

// KinesisAPI is the subset of the Kinesis client the consumer needs,
// kept as an interface for mocking.
type KinesisAPI interface {
	DescribeStream(ctx context.Context, params *kinesis.DescribeStreamInput, optFns ...func(*kinesis.Options)) (*kinesis.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *kinesis.GetShardIteratorInput, optFns ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *kinesis.GetRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error)
}

// KinesisConsumer reads canonical event JSON records from a Kinesis
// stream and pushes them into the ingestion gateway.
type KinesisConsumer struct {
	client     KinesisAPI
	streamName string
	ingest     Ingestor
	pollDelay  time.Duration
}

func NewKinesisConsumer(client KinesisAPI, streamName string, ingest Ingestor) *KinesisConsumer {
	return &KinesisConsumer{
		client:     client,
		streamName: streamName,
		ingest:     ingest,
		pollDelay:  time.Second,
	}
}

// Start discovers shards and launches a poll loop per shard.
func (c *KinesisConsumer) Start(ctx context.Context) {
	slog.Info("starting kinesis consumer", "stream", c.streamName)

	describeOutput, err := c.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
		StreamName: &c.streamName,
	})
	if err != nil {
		slog.Error("failed to describe kinesis stream", "error", err)
		return
	}

	for _, shard := range describeOutput.StreamDescription.Shards {
		go c.processShard(ctx, *shard.ShardId)
	}
}

func (c *KinesisConsumer) processShard(ctx context.Context, shardID string) {
	slog.Info("processing shard", "shard_id", shardID)

	iteratorOutput, err := c.client.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
		StreamName:        &c.streamName,
		ShardId:           &shardID,
		ShardIteratorType: types.ShardIteratorTypeLatest,
	})
	if err != nil {
		slog.Error("failed to get shard iterator", "error", err, "shard_id", shardID)
		return
	}

	shardIterator := iteratorOutput.ShardIterator

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping shard processing", "shard_id", shardID)
			return
		default:
			if shardIterator == nil {
				slog.Warn("shard iterator is nil, stopping", "shard_id", shardID)
				return
			}

			recordsOutput, err := c.client.GetRecords(ctx, &kinesis.GetRecordsInput{
				ShardIterator: shardIterator,
			})
			if err != nil {
				slog.Error("failed to get records", "error", err, "shard_id", shardID)
				time.Sleep(c.pollDelay)
				continue
			}

			for _, record := range recordsOutput.Records {
				c.processRecord(record)
			}

			shardIterator = recordsOutput.NextShardIterator
			time.Sleep(c.pollDelay)
		}
	}
}

func (c *KinesisConsumer) processRecord(record types.Record) {
	var ev domain.Event
	if err := json.Unmarshal(record.Data, &ev); err != nil {
		slog.Error("failed to unmarshal fleet event record", "error", err)
		return
	}
	if ev.ID == "" || ev.TripID == "" {
		slog.Debug("dropping malformed kinesis event", "event_id", ev.ID)
		return
	}
	c.ingest.IngestEvent(ev)
}

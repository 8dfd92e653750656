package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ipfs/go-cid"
)

// DDBClient is the subset of the DynamoDB API used by DynamoIndex.
type DDBClient interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DynamoIndex implements Index on top of a DynamoDB table.
//
// Table schema:
//   - Partition key: blockmultihash (string) - base58btc multihash of the block
//   - Sort key: carpath (string) - "region/bucket/key" of the container
//   - offset (number), length (number) - byte range of the block data
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name blocks \
//	  --attribute-definitions AttributeName=blockmultihash,AttributeType=S AttributeName=carpath,AttributeType=S \
//	  --key-schema AttributeName=blockmultihash,KeyType=HASH AttributeName=carpath,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoIndex struct {
	client    DDBClient
	tableName string
	opts      DynamoOptions
}

// DynamoOptions configures attribute names of a DynamoIndex.
type DynamoOptions struct {
	// KeyAttribute is the partition key holding the multihash. Default: blockmultihash.
	KeyAttribute string
	// PathAttribute holds the composite container path. Default: carpath.
	PathAttribute string
	// Limit caps the number of returned locations. Default: MaxLocations.
	Limit int32
	// Logger receives warnings about items that are skipped. Default: discard.
	Logger *slog.Logger
}

// record is a single raw index item.
type record struct {
	CarPath string `dynamodbav:"carpath"`
	Offset  int64  `dynamodbav:"offset"`
	Length  int64  `dynamodbav:"length"`
}

// NewDynamoIndex creates a new DynamoDB backed index.
func NewDynamoIndex(client DDBClient, tableName string, optFns ...func(*DynamoOptions)) *DynamoIndex {
	opts := DynamoOptions{
		KeyAttribute:  "blockmultihash",
		PathAttribute: "carpath",
		Limit:         MaxLocations,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Limit <= 0 || opts.Limit > MaxLocations {
		opts.Limit = MaxLocations
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &DynamoIndex{
		client:    client,
		tableName: tableName,
		opts:      opts,
	}
}

// Get implements Index. Query failures are returned as is; there is no retry
// at this layer. Items whose path cannot be parsed or whose range is negative
// are logged and skipped.
func (d *DynamoIndex) Get(ctx context.Context, c cid.Cid) ([]Location, error) {
	resp, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("#k = :mh"),
		ExpressionAttributeNames: map[string]string{
			"#k": d.opts.KeyAttribute,
			"#p": d.opts.PathAttribute,
			"#o": "offset",
			"#l": "length",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":mh": &types.AttributeValueMemberS{Value: KeyOf(c)},
		},
		ProjectionExpression: aws.String("#p, #o, #l"),
		Limit:                aws.Int32(d.opts.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	locs := make([]Location, 0, len(resp.Items))
	for _, item := range resp.Items {
		if len(locs) == int(d.opts.Limit) {
			break
		}

		var rec record
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode index item: %w", err)
		}

		if d.opts.PathAttribute != "carpath" {
			if attr, ok := item[d.opts.PathAttribute].(*types.AttributeValueMemberS); ok {
				rec.CarPath = attr.Value
			}
		}

		obj, err := ParsePath(rec.CarPath)
		if err != nil {
			d.opts.Logger.WarnContext(ctx, "skipping index item",
				"cid", c.String(),
				"error", err,
			)
			continue
		}

		loc := Location{
			Region: obj.Region,
			Bucket: obj.Bucket,
			Key:    obj.Key,
			Offset: rec.Offset,
			Length: rec.Length,
		}
		if !loc.Valid() {
			d.opts.Logger.WarnContext(ctx, "skipping index item",
				"cid", c.String(),
				"location", loc.String(),
				"error", "negative range",
			)
			continue
		}

		locs = append(locs, loc)
	}

	return locs, nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of the DynamoDB API the catalog uses.
// *dynamodb.Client satisfies it; tests substitute a mock.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDB is a Catalog backed by a DynamoDB table. Each publish writes
// a new item with a monotonically increasing version, guarded by a
// conditional write, so concurrent publishers cannot silently clobber
// each other's pointer and the commit history stays queryable.
//
// Table schema:
//   - Partition key: index_name (string)
//   - Sort key: version (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecdex-catalog \
//	  --attribute-definitions AttributeName=index_name,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=index_name,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDB struct {
	client    DDBClient
	tableName string
}

// NewDynamoDB creates a DynamoDB-backed catalog on tableName.
func NewDynamoDB(client DDBClient, tableName string) *DynamoDB {
	return &DynamoDB{
		client:    client,
		tableName: tableName,
	}
}

// SetLatest implements Catalog. It reads the current version and writes
// version+1 conditioned on that item not existing yet; a losing racer
// gets ErrConflict instead of overwriting the winner.
func (c *DynamoDB) SetLatest(ctx context.Context, index, key string) error {
	currentVersion, _, err := c.latestVersion(ctx, index)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"index_name":   &types.AttributeValueMemberS{Value: index},
			"version":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"snapshot_key": &types.AttributeValueMemberS{Value: key},
			"committed_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConflict
		}
		return fmt.Errorf("catalog: failed to commit version: %w", err)
	}

	return nil
}

// Latest implements Catalog.
func (c *DynamoDB) Latest(ctx context.Context, index string) (string, error) {
	version, key, err := c.latestVersion(ctx, index)
	if err != nil {
		return "", err
	}
	if version == 0 {
		return "", ErrNotFound
	}
	return key, nil
}

// latestVersion queries the highest committed version. Version 0 with an
// empty key means nothing has been published yet.
func (c *DynamoDB) latestVersion(ctx context.Context, index string) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("index_name = :name"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: index},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("catalog: failed to query latest version: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("catalog: invalid version attribute")
	}
	keyAttr, ok := item["snapshot_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("catalog: invalid snapshot_key attribute")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("catalog: failed to parse version: %w", err)
	}

	return version, keyAttr.Value, nil
}

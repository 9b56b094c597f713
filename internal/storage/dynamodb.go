package storage

import (
	"context"
	"fmt"

	"github.com/MostProject/wslistener/internal/failure"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const serviceDynamoDB = "dynamodb"

// DynamoDBAPI is the subset of the DynamoDB client used by the store
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore keeps connection records in a DynamoDB table keyed on "id"
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(client DynamoDBAPI, tableName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
	}
}

// Put saves a connection record
func (s *DynamoDBStore) Put(ctx context.Context, rec models.ConnectionRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	return failure.Dependency(serviceDynamoDB, "PutItem", err)
}

// Delete removes a connection record. Deleting a missing id succeeds.
func (s *DynamoDBStore) Delete(ctx context.Context, connectionID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	return failure.Dependency(serviceDynamoDB, "DeleteItem", err)
}

// ExistsAny reports whether at least one record is left in the table.
// It reads a single item with a strongly consistent scan rather than counting.
func (s *DynamoDBStore) ExistsAny(ctx context.Context) (bool, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:      aws.String(s.tableName),
		Limit:          aws.Int32(1),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, failure.Dependency(serviceDynamoDB, "Scan", err)
	}
	return len(result.Items) > 0, nil
}

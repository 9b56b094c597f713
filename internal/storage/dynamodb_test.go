package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MostProject/wslistener/internal/failure"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamoDB struct {
	puts    []*dynamodb.PutItemInput
	deletes []*dynamodb.DeleteItemInput
	scans   []*dynamodb.ScanInput

	scanItems []map[string]types.AttributeValue
	err       error
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.ScanOutput{Items: f.scanItems, Count: int32(len(f.scanItems))}, nil
}

func TestDynamoDBStorePut(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewDynamoDBStore(client, "TABLE_NAME")
	now := time.Unix(1700000000, 0)

	err := store.Put(context.Background(), models.NewConnectionRecord("abc-123", now))
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	input := client.puts[0]
	assert.Equal(t, "TABLE_NAME", aws.ToString(input.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "abc-123"}, input.Item["id"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1700086400"}, input.Item["ttl"])
	assert.Len(t, input.Item, 2)
}

func TestDynamoDBStoreDelete(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewDynamoDBStore(client, "TABLE_NAME")

	require.NoError(t, store.Delete(context.Background(), "abc-123"))
	// DeleteItem on a missing key succeeds in DynamoDB
	require.NoError(t, store.Delete(context.Background(), "abc-123"))

	require.Len(t, client.deletes, 2)
	input := client.deletes[0]
	assert.Equal(t, "TABLE_NAME", aws.ToString(input.TableName))
	assert.Equal(t, map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "abc-123"},
	}, input.Key)
}

func TestDynamoDBStoreExistsAny(t *testing.T) {
	tests := []struct {
		name  string
		items []map[string]types.AttributeValue
		want  bool
	}{
		{
			name: "empty table",
			want: false,
		},
		{
			name: "one remaining record",
			items: []map[string]types.AttributeValue{
				{"id": &types.AttributeValueMemberS{Value: "other"}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeDynamoDB{scanItems: tt.items}
			store := NewDynamoDBStore(client, "TABLE_NAME")

			got, err := store.ExistsAny(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, client.scans, 1)
			input := client.scans[0]
			assert.Equal(t, "TABLE_NAME", aws.ToString(input.TableName))
			assert.Equal(t, int32(1), aws.ToInt32(input.Limit))
			assert.True(t, aws.ToBool(input.ConsistentRead))
		})
	}
}

func TestDynamoDBStoreErrors(t *testing.T) {
	cause := errors.New("ProvisionedThroughputExceededException")
	client := &fakeDynamoDB{err: cause}
	store := NewDynamoDBStore(client, "TABLE_NAME")
	ctx := context.Background()

	err := store.Put(ctx, models.NewConnectionRecord("abc-123", time.Now()))
	assert.True(t, failure.IsDependencyFailure(err))
	assert.ErrorIs(t, err, cause)

	err = store.Delete(ctx, "abc-123")
	assert.True(t, failure.IsDependencyFailure(err))

	exists, err := store.ExistsAny(ctx)
	assert.True(t, failure.IsDependencyFailure(err))
	assert.False(t, exists)
}

package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

type DynamoContentStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoContentStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoContentStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoContentStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoContentStore) Get(ctx context.Context, kind models.Kind, id string) (store.Record, error) {
	dr, err := getItem[dynamoRecord](dynamoStore, ctx, recordPK(kind, id), "RECORD")
	if err != nil {
		return store.Record{}, err
	}

	return recordFromDynamo(dr), nil
}

// PutIfVersion is the compare-and-swap primitive: the put commits only if
// the stored Version still equals expectedVersion. expectedVersion 0 means
// the record must not exist yet (create path).
func (dynamoStore *DynamoContentStore) PutIfVersion(ctx context.Context, rec store.Record, expectedVersion int64) (store.Record, error) {
	dr := recordToDynamo(rec)
	avMap, err := attributevalue.MarshalMap(dr)
	if err != nil {
		return store.Record{}, fmt.Errorf("marshal error: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Item:      avMap,
	}

	if expectedVersion == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		input.ConditionExpression = aws.String("Version = :expected")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}

	_, err = dynamoStore.client.PutItem(ctx, input)
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			// Re-read to learn the authoritative stored version.
			current, getErr := dynamoStore.Get(ctx, rec.Kind, rec.Id)
			if getErr != nil {
				if errors.Is(getErr, store.ErrItemNotFound) {
					return store.Record{}, store.ErrItemNotFound
				}
				return store.Record{}, fmt.Errorf("conditional put failed, and Get check also failed: %w", getErr)
			}
			return store.Record{}, &store.VersionMismatchError{Actual: current.Version}
		}
		return store.Record{}, fmt.Errorf("conditional put failed: %w", err)
	}

	return rec, nil
}

// CreateUnique provisions at most one record per (kind, owner, key). A
// guard item and the record itself are written in one transaction; the
// loser of a concurrent race reads back the winner's record. A guard left
// pointing at a purged record is replaced so provisioning can run again.
func (dynamoStore *DynamoContentStore) CreateUnique(ctx context.Context, rec store.Record, uniquenessKey string) (store.Record, bool, error) {
	guard := dynamoGuard{
		PK:       guardPK(rec.Kind, rec.OwnerId, uniquenessKey),
		SK:       "GUARD",
		RecordId: rec.Id,
	}

	guardMap, err := attributevalue.MarshalMap(guard)
	if err != nil {
		return store.Record{}, false, fmt.Errorf("marshal error: %w", err)
	}
	recMap, err := attributevalue.MarshalMap(recordToDynamo(rec))
	if err != nil {
		return store.Record{}, false, fmt.Errorf("marshal error: %w", err)
	}

	for {
		_, err = dynamoStore.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					Put: &types.Put{
						TableName:           aws.String(dynamoStore.tableName),
						Item:                guardMap,
						ConditionExpression: aws.String("attribute_not_exists(PK)"),
					},
				},
				{
					Put: &types.Put{
						TableName: aws.String(dynamoStore.tableName),
						Item:      recMap,
					},
				},
			},
		})
		if err == nil {
			return rec, true, nil
		}

		var tce *types.TransactionCanceledException
		if !errors.As(err, &tce) {
			return store.Record{}, false, fmt.Errorf("transactional create failed: %w", err)
		}

		// Guard already exists: fetch it and the record it points at.
		existingGuard, getErr := getItem[dynamoGuard](dynamoStore, ctx, guard.PK, "GUARD")
		if getErr != nil {
			if errors.Is(getErr, store.ErrItemNotFound) {
				// Guard vanished between the failed transaction and the
				// read; run the transaction again.
				continue
			}
			return store.Record{}, false, fmt.Errorf("failed to get existing guard: %w", getErr)
		}

		existing, getErr := dynamoStore.Get(ctx, rec.Kind, existingGuard.RecordId)
		if getErr == nil {
			return existing, false, nil
		}
		if !errors.Is(getErr, store.ErrItemNotFound) {
			return store.Record{}, false, fmt.Errorf("failed to get existing record: %w", getErr)
		}

		// Stale guard: the record it points at was purged. Remove the
		// guard only if it still points at the purged record, then retry.
		_, delErr := dynamoStore.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(dynamoStore.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: guard.PK},
				"SK": &types.AttributeValueMemberS{Value: "GUARD"},
			},
			ConditionExpression: aws.String("RecordId = :stale"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":stale": &types.AttributeValueMemberS{Value: existingGuard.RecordId},
			},
		})
		if delErr != nil {
			var cce *types.ConditionalCheckFailedException
			if !errors.As(delErr, &cce) {
				return store.Record{}, false, fmt.Errorf("failed to delete stale guard: %w", delErr)
			}
		}
	}
}

func (dynamoStore *DynamoContentStore) ListByOwner(ctx context.Context, kind models.Kind, ownerId string, filter store.ListFilter) ([]store.Record, error) {
	dynamoRecords, err := queryGSI[dynamoRecord](dynamoStore, ctx, "GSI_OwnerRecords",
		"#ok = :ownerKind",
		map[string]string{"#ok": "OwnerKind"},
		map[string]types.AttributeValue{
			":ownerKind": &types.AttributeValueMemberS{Value: ownerId + "#" + string(kind)},
		},
	)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, 0, len(dynamoRecords))
	for _, dr := range dynamoRecords {
		rec := recordFromDynamo(dr)
		switch filter {
		case store.FilterActive:
			if rec.State != models.StateActive {
				continue
			}
		case store.FilterTrashed:
			if rec.State != models.StateTrashed {
				continue
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func (dynamoStore *DynamoContentStore) ListTrashedBefore(ctx context.Context, kind models.Kind, cutoff int64) ([]store.Record, error) {
	dynamoRecords, err := queryGSI[dynamoRecord](dynamoStore, ctx, "GSI_TrashedRecords",
		"#tb = :bucket AND #ta <= :cutoff",
		map[string]string{"#tb": "TrashBucket", "#ta": "TrashedAt"},
		map[string]types.AttributeValue{
			":bucket": &types.AttributeValueMemberS{Value: "TRASHED#" + string(kind)},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
		},
	)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, 0, len(dynamoRecords))
	for _, dr := range dynamoRecords {
		records = append(records, recordFromDynamo(dr))
	}

	return records, nil
}

// IncrementCounter atomically adds delta to a numeric field, strictly on
// existing records so a purged record can never grow a partial item back.
func (dynamoStore *DynamoContentStore) IncrementCounter(ctx context.Context, kind models.Kind, id string, field string, delta int64) (int64, error) {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: recordPK(kind, id)},
		"SK": &types.AttributeValueMemberS{Value: "RECORD"},
	}

	out, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(dynamoStore.tableName),
		Key:              key,
		UpdateExpression: aws.String("SET #c = if_not_exists(#c, :zero) + :val"),
		ExpressionAttributeNames: map[string]string{
			"#c": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":val":  &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return 0, store.ErrItemNotFound
		}
		return 0, fmt.Errorf("increment counter failed: %w", err)
	}

	newValAttr, ok := out.Attributes[field].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter field %s missing from update response", field)
	}
	newVal, err := strconv.ParseInt(newValAttr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter field %s is not numeric: %w", field, err)
	}

	return newVal, nil
}

func (dynamoStore *DynamoContentStore) Purge(ctx context.Context, kind models.Kind, id string) error {
	return deleteItem(dynamoStore, ctx, recordPK(kind, id), "RECORD")
}

package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/memora-app/memora/store"
)

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	var cfg aws.Config
	var err error

	if devMode {
		// Load config with dummy credentials and region for local/dev
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		// Override endpoint for DynamoDB locally
		return dynamodb.New(dynamodb.Options{
			Credentials:      cfg.Credentials,
			Region:           cfg.Region,
			EndpointResolver: dynamodb.EndpointResolverFromURL(dynamodbEndpoint),
		}), nil
	}

	// Production/Fargate: default config (uses Task Role and AWS endpoints)
	cfg, err = config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}

func getTables(client *dynamodb.Client, ctx context.Context) ([]string, error) {
	output, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, err
	}

	return output.TableNames, nil
}

// getItem retrieves an item of type T from DynamoDB by PK and SK.
// Reads are consistent because the engine's check-then-write loop depends
// on observing the latest committed version.
func getItem[T any](dynamoStore *DynamoContentStore, ctx context.Context, pk string, sk string) (T, error) {
	var zero T

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// queryGSI returns all items of type T matching a key condition on the
// given index, following pagination to the end.
func queryGSI[T any](
	dynamoStore *DynamoContentStore,
	ctx context.Context,
	indexName string,
	keyCondition string,
	exprAttrNames map[string]string,
	exprAttrValues map[string]types.AttributeValue,
) ([]T, error) {
	var results []T

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(dynamoStore.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
	}

	// Use pagination to retrieve all items
	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query GSI failed: %w", err)
		}

		var pageItems []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}

		results = append(results, pageItems...)
	}

	return results, nil
}

// deleteItem removes an item unconditionally. Deleting a missing item is
// not an error: purge is idempotent from the backend's point of view.
func deleteItem(dynamoStore *DynamoContentStore, ctx context.Context, pk string, sk string) error {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	_, err := dynamoStore.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	return nil
}

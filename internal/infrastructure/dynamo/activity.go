package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rentx/rentx-api/internal/domain"
)

// ActivityRepo appends audit records to the user_activity table.
type ActivityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewActivityRepo(client *dynamodb.Client, tableName string) *ActivityRepo {
	return &ActivityRepo{client: client, tableName: tableName}
}

func (r *ActivityRepo) Put(ctx context.Context, a *domain.Activity) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put activity: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

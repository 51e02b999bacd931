package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rentx/rentx-api/internal/domain"
)

// PropertyRepo provides typed DynamoDB operations for the properties table.
type PropertyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPropertyRepo(client *dynamodb.Client, tableName string) *PropertyRepo {
	return &PropertyRepo{client: client, tableName: tableName}
}

func (r *PropertyRepo) Put(ctx context.Context, p *domain.Property) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal property: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put property: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

func (r *PropertyRepo) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("property_id", propertyID),
	})
	if err != nil {
		return nil, fmt.Errorf("get property: %v: %w", err, domain.ErrStoreUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("property %s: %w", propertyID, domain.ErrNotFound)
	}
	var p domain.Property
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Scan returns every property. The catalog is small enough that the feed is a
// full scan; sorting happens in the listing service.
func (r *PropertyRepo) Scan(ctx context.Context) ([]domain.Property, error) {
	var props []domain.Property
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan properties: %v: %w", err, domain.ErrStoreUnavailable)
		}
		var page []domain.Property
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		props = append(props, page...)
	}
	return props, nil
}

func (r *PropertyRepo) Update(ctx context.Context, propertyID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("property_id", propertyID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update property: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

func (r *PropertyRepo) Delete(ctx context.Context, propertyID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("property_id", propertyID),
	})
	if err != nil {
		return fmt.Errorf("delete property: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

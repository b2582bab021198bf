package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/occamy/fieldops-api/internal/domain"
)

// ActivityRepo provides typed DynamoDB operations for the activities table.
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
	return err
}

func (r *ActivityRepo) Get(ctx context.Context, activityID string) (*domain.Activity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("activity_id", activityID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("activity not found: %w", domain.ErrNotFound)
	}
	var a domain.Activity
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns every activity logged by the given user via GSI.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID string) ([]domain.Activity, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var activities []domain.Activity
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListAll returns every activity. Admin-only callers; the table stays small
// enough for a scan in this deployment.
func (r *ActivityRepo) ListAll(ctx context.Context) ([]domain.Activity, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var activities []domain.Activity
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

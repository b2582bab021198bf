package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/occamy/fieldops-api/internal/domain"
)

// OTPRepo manages one-time codes and verification receipts.
// PK: otp_id. Receipts share the table under a "receipt#<token>" key so a
// single TTL covers both. The phone-created_at GSI serves the per-phone
// lookups, newest first.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OTPCode) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Delete(ctx context.Context, otpID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("otp_id", otpID),
	})
	return err
}

// DeleteByPhone removes every code stored for the phone, superseding them
// before a fresh one is written. Keeps the one-active-record invariant.
func (r *OTPRepo) DeleteByPhone(ctx context.Context, phoneNumber string) error {
	out, err := r.queryByPhone(ctx, phoneNumber)
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		idAttr, ok := item["otp_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := r.Delete(ctx, idAttr.Value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FindActive returns the unverified, unexpired code for the phone, if any.
// Expiry is evaluated here, at read time; expired rows are left for the TTL.
func (r *OTPRepo) FindActive(ctx context.Context, phoneNumber string, now time.Time) (*domain.OTPCode, error) {
	out, err := r.queryByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	for _, item := range out.Items {
		var o domain.OTPCode
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, err
		}
		if !o.Verified && !o.Expired(now) {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("no active code for phone: %w", domain.ErrNotFound)
}

// FindRecentVerified returns the most recent verified code for the phone
// created at or after since. Used by the session-bridge lookup.
func (r *OTPRepo) FindRecentVerified(ctx context.Context, phoneNumber string, since time.Time) (*domain.OTPCode, error) {
	out, err := r.queryByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	for _, item := range out.Items {
		var o domain.OTPCode
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, err
		}
		if o.Verified && o.CreatedAt >= since.Unix() {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("no recent verified code: %w", domain.ErrNotFound)
}

// IncrementAttempts atomically bumps the attempt counter, guarded so the
// count can never pass maxAttempts even under concurrent wrong guesses.
// Returns the new count, or domain.ErrTooManyAttempts when the guard fires.
func (r *OTPRepo) IncrementAttempts(ctx context.Context, otpID string, maxAttempts int) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("otp_id", otpID),
		UpdateExpression: aws.String("SET attempts = attempts + :one"),
		ConditionExpression: aws.String(
			"attribute_exists(otp_id) AND verified = :f AND attempts < :max"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(maxAttempts)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, fmt.Errorf("attempt limit reached: %w", domain.ErrTooManyAttempts)
		}
		return 0, err
	}
	n, ok := out.Attributes["attempts"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("unexpected attempts attribute in update response")
	}
	return strconv.Atoi(n.Value)
}

// MarkVerified flips verified false→true exactly once and records the
// resolved user. A second call fails with domain.ErrConflict.
func (r *OTPRepo) MarkVerified(ctx context.Context, otpID, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET verified = :t, user_id = :uid"),
		ConditionExpression: aws.String("attribute_exists(otp_id) AND verified = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("code already consumed: %w", domain.ErrConflict)
		}
	}
	return err
}

// PutReceipt stores a single-use verification receipt under its own key.
func (r *OTPRepo) PutReceipt(ctx context.Context, rec *domain.VerificationReceipt) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"otp_id":     &types.AttributeValueMemberS{Value: receiptKey(rec.Token)},
			"user_id":    &types.AttributeValueMemberS{Value: rec.UserID},
			"phone":      &types.AttributeValueMemberS{Value: rec.Phone},
			"expires_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.ExpiresAt, 10)},
		},
	})
	return err
}

// TakeReceipt deletes and returns the receipt in one call, so it can only
// ever be redeemed once. Expired or missing receipts yield ErrNotFound.
func (r *OTPRepo) TakeReceipt(ctx context.Context, receiptToken string, now time.Time) (*domain.VerificationReceipt, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey("otp_id", receiptKey(receiptToken)),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, fmt.Errorf("receipt not found: %w", domain.ErrNotFound)
	}
	var rec domain.VerificationReceipt
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, err
	}
	rec.Token = receiptToken
	if rec.Expired(now) {
		return nil, fmt.Errorf("receipt expired: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

func receiptKey(receiptToken string) string {
	return "receipt#" + receiptToken
}

func (r *OTPRepo) queryByPhone(ctx context.Context, phoneNumber string) (*dynamodb.QueryOutput, error) {
	return r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("phone-created_at-index"),
		KeyConditionExpression: aws.String("phone = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: phoneNumber},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
	"github.com/sirupsen/logrus"
)

type OTPRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewOTPRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Store writes the OTP record for an email. Each email owns a single item,
// so the unconditional PutItem supersedes any prior code atomically: two
// concurrent sends cannot leave two active codes.
func (r *OTPRepository) Store(ctx context.Context, otp *models.OtpCode) error {
	item, err := attributevalue.MarshalMap(otp)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: otp.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: otp.GetSK()}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", otp.ExpiresAt.Unix())}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to store OTP in DynamoDB")
		return fmt.Errorf("%w: failed to store OTP: %v", autherr.ErrInternal, err)
	}

	return nil
}

// Get returns the current OTP record for an email, or nil when none exists.
func (r *OTPRepository) Get(ctx context.Context, email string) (*models.OtpCode, error) {
	lookup := models.OtpCode{Email: email}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("%w: failed to get OTP: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var otp models.OtpCode
	if err := attributevalue.UnmarshalMap(result.Item, &otp); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal OTP: %v", autherr.ErrInternal, err)
	}

	return &otp, nil
}

// MarkUsed consumes a specific OTP record. The condition pins both the id
// and the unused flag, so a record superseded or consumed between read and
// write fails the check instead of flipping the wrong code.
func (r *OTPRepository) MarkUsed(ctx context.Context, otp *models.OtpCode) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: otp.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: otp.GetSK()},
		},
		UpdateExpression:    aws.String("SET used = :used"),
		ConditionExpression: aws.String("id = :id AND used = :unused"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":     &types.AttributeValueMemberS{Value: otp.ID},
			":used":   &types.AttributeValueMemberBOOL{Value: true},
			":unused": &types.AttributeValueMemberBOOL{Value: false},
		},
	})

	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return autherr.ErrOtpInvalidOrExpired
		}
		return fmt.Errorf("%w: failed to mark OTP used: %v", autherr.ErrInternal, err)
	}

	return nil
}

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

type AuthCodeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewAuthCodeRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *AuthCodeRepository {
	return &AuthCodeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *AuthCodeRepository) Store(ctx context.Context, code *models.AuthorizationCode) error {
	item, err := attributevalue.MarshalMap(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: code.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: code.GetSK()}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", code.ExpiresAt.Unix()+3600)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to store authorization code in DynamoDB")
		return fmt.Errorf("%w: failed to store authorization code: %v", autherr.ErrInternal, err)
	}

	return nil
}

func (r *AuthCodeRepository) GetByCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	lookup := models.AuthorizationCode{Code: code}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("%w: failed to get authorization code: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, autherr.ErrCodeNotFound
	}

	var stored models.AuthorizationCode
	if err := attributevalue.UnmarshalMap(result.Item, &stored); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal authorization code: %v", autherr.ErrInternal, err)
	}

	return &stored, nil
}

// MarkUsed consumes the code. The conditional write guarantees a code is
// redeemed at most once even under concurrent exchange calls.
func (r *AuthCodeRepository) MarkUsed(ctx context.Context, code string) error {
	lookup := models.AuthorizationCode{Code: code}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
		UpdateExpression:    aws.String("SET used = :used"),
		ConditionExpression: aws.String("used = :unused"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":used":   &types.AttributeValueMemberBOOL{Value: true},
			":unused": &types.AttributeValueMemberBOOL{Value: false},
		},
	})

	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return autherr.ErrCodeAlreadyUsed
		}
		return fmt.Errorf("%w: failed to mark authorization code used: %v", autherr.ErrInternal, err)
	}

	return nil
}

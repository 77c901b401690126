package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
	"github.com/sirupsen/logrus"
)

type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	lookup := models.User{Email: email}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get user from DynamoDB")
		return nil, fmt.Errorf("%w: failed to get user: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, autherr.ErrUserNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal user from DynamoDB")
		return nil, fmt.Errorf("%w: failed to unmarshal user: %v", autherr.ErrInternal, err)
	}

	return &user, nil
}

// GetByID resolves a user through the USERID pointer item written at create
// time, then loads the full record by email.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "USERID#" + id},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get user pointer from DynamoDB")
		return nil, fmt.Errorf("%w: failed to get user by id: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, autherr.ErrUserNotFound
	}

	emailAttr, ok := result.Item["email"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("%w: user pointer item is missing email", autherr.ErrInternal)
	}

	return r.GetByEmail(ctx, emailAttr.Value)
}

// Create writes the user record plus an id pointer item. Creation is
// conditional on the email not existing yet.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal user for DynamoDB")
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})

	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return autherr.ErrUserExists
		}
		r.logger.WithError(err).Error("Failed to create user in DynamoDB")
		return fmt.Errorf("%w: failed to create user: %v", autherr.ErrInternal, err)
	}

	pointer := map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: "USERID#" + user.ID},
		"SK":    &types.AttributeValueMemberS{Value: "METADATA"},
		"email": &types.AttributeValueMemberS{Value: user.Email},
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      pointer,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to create user pointer in DynamoDB")
		return fmt.Errorf("%w: failed to create user pointer: %v", autherr.ErrInternal, err)
	}

	return nil
}

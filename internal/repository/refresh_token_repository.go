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

type RefreshTokenRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewRefreshTokenRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Store persists a refresh token row. Rows are kept after use for audit;
// the TTL attribute lets DynamoDB remove them long after expiry.
func (r *RefreshTokenRepository) Store(ctx context.Context, token *models.RefreshToken) error {
	item, err := attributevalue.MarshalMap(token)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: token.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: token.GetSK()}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", token.ExpiresAt.Unix())}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to store refresh token in DynamoDB")
		return fmt.Errorf("%w: failed to store refresh token: %v", autherr.ErrInternal, err)
	}

	return nil
}

// GetByToken looks a refresh token up by its opaque secret string.
func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	lookup := models.RefreshToken{Token: token}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("%w: failed to get refresh token: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, autherr.ErrTokenNotFound
	}

	var stored models.RefreshToken
	if err := attributevalue.UnmarshalMap(result.Item, &stored); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal refresh token: %v", autherr.ErrInternal, err)
	}

	return &stored, nil
}

// MarkUsed transitions a token from active to used. The conditional write is
// the replay barrier: of two concurrent rotations only one succeeds, the
// other observes the failed condition.
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, token string) error {
	if err := r.transition(ctx, token, models.RefreshTokenUsed); err != nil {
		if errors.Is(err, autherr.ErrTokenAlreadyUsed) || errors.Is(err, autherr.ErrTokenInvalidated) {
			return err
		}
		return fmt.Errorf("%w: failed to mark refresh token used: %v", autherr.ErrInternal, err)
	}
	return nil
}

// MarkInvalidated transitions a token from active to invalidated (explicit
// revocation, e.g. logout). Terminal states are never left.
func (r *RefreshTokenRepository) MarkInvalidated(ctx context.Context, token string) error {
	if err := r.transition(ctx, token, models.RefreshTokenInvalidated); err != nil {
		if errors.Is(err, autherr.ErrTokenAlreadyUsed) || errors.Is(err, autherr.ErrTokenInvalidated) {
			return err
		}
		return fmt.Errorf("%w: failed to invalidate refresh token: %v", autherr.ErrInternal, err)
	}
	return nil
}

func (r *RefreshTokenRepository) transition(ctx context.Context, token string, to models.RefreshTokenStatus) error {
	lookup := models.RefreshToken{Token: token}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
		UpdateExpression:    aws.String("SET token_status = :to"),
		ConditionExpression: aws.String("token_status = :active"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":     &types.AttributeValueMemberS{Value: string(to)},
			":active": &types.AttributeValueMemberS{Value: string(models.RefreshTokenActive)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})

	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return terminalStateError(conditionFailed.Item)
		}
		return err
	}

	return nil
}

// terminalStateError reports which terminal state blocked a transition,
// using the item returned with the failed condition.
func terminalStateError(item map[string]types.AttributeValue) error {
	var stored models.RefreshToken
	if err := attributevalue.UnmarshalMap(item, &stored); err == nil &&
		stored.Status == models.RefreshTokenInvalidated {
		return autherr.ErrTokenInvalidated
	}
	return autherr.ErrTokenAlreadyUsed
}

package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
	"github.com/sirupsen/logrus"
)

// ClientRepository reads relying-party registry records. The auth core never
// writes them; registry management is a separate concern.
type ClientRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewClientRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ClientRepository {
	return &ClientRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	lookup := models.Client{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lookup.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: lookup.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get client from DynamoDB")
		return nil, fmt.Errorf("%w: failed to get client: %v", autherr.ErrInternal, err)
	}

	if result.Item == nil {
		return nil, autherr.ErrClientNotFound
	}

	var stored models.Client
	if err := attributevalue.UnmarshalMap(result.Item, &stored); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal client: %v", autherr.ErrInternal, err)
	}

	return &stored, nil
}

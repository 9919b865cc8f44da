// Package dynamodoc serves advertisements from a DynamoDB table keyed by "id".
package dynamodoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// DynamoAPI captures the subset of DynamoDB client methods used by the store.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const (
	attrID          = "id"
	attrWebID       = "webId"
	attrName        = "name"
	attrDescription = "description"

	ensureTableMaxAttempts = 20
	ensureTableRetryDelay  = 150 * time.Millisecond
)

// Store reads advertisements from a DynamoDB table.
type Store struct {
	client DynamoAPI
	table  string
	logger *slog.Logger
}

// New builds a DynamoDB client from cfg and ensures the table exists.
func New(ctx context.Context, cfg config.DynamoConfig, logger *slog.Logger) (*Store, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamodb client: %w", err)
	}
	return NewWithClient(ctx, client, cfg.Table, logger)
}

// NewWithClient wraps an existing client and ensures the table exists.
func NewWithClient(ctx context.Context, client DynamoAPI, table string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%w: dynamodb table name is required", types.ErrInvalidConfig)
	}
	if err := ensureTable(ctx, client, table); err != nil {
		return nil, err
	}
	return &Store{
		client: client,
		table:  table,
		logger: logger.With("component", "dynamodb-provider"),
	}, nil
}

func newClient(ctx context.Context, cfg config.DynamoConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey.Value(), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// FetchByID returns (nil, nil) when the table has no item for id.
func (s *Store) FetchByID(ctx context.Context, id string) (*types.Advertisement, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	adv := &types.Advertisement{
		WebID:       stringAttr(out.Item, attrWebID),
		Name:        stringAttr(out.Item, attrName),
		Description: stringAttr(out.Item, attrDescription),
	}
	if adv.WebID == "" {
		adv.WebID = id
	}
	return adv, nil
}

// Put writes adv keyed by its WebID.
func (s *Store) Put(ctx context.Context, adv *types.Advertisement) error {
	if adv == nil || adv.WebID == "" {
		return fmt.Errorf("%w: advertisement without id", types.ErrInvalidKey)
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]ddbtypes.AttributeValue{
			attrID:          &ddbtypes.AttributeValueMemberS{Value: adv.WebID},
			attrWebID:       &ddbtypes.AttributeValueMemberS{Value: adv.WebID},
			attrName:        &ddbtypes.AttributeValueMemberS{Value: adv.Name},
			attrDescription: &ddbtypes.AttributeValueMemberS{Value: adv.Description},
		},
	})
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       itemKey(id),
	})
	return err
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

func itemKey(id string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{attrID: &ddbtypes.AttributeValueMemberS{Value: id}}
}

func stringAttr(item map[string]ddbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*ddbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func ensureTable(ctx context.Context, client DynamoAPI, table string) error {
	var lastErr error
	for attempt := 1; attempt <= ensureTableMaxAttempts; attempt++ {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err == nil {
			return nil
		}

		var notFound *ddbtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			_, createErr := client.CreateTable(ctx, &dynamodb.CreateTableInput{
				TableName: aws.String(table),
				KeySchema: []ddbtypes.KeySchemaElement{
					{AttributeName: aws.String(attrID), KeyType: ddbtypes.KeyTypeHash},
				},
				AttributeDefinitions: []ddbtypes.AttributeDefinition{
					{AttributeName: aws.String(attrID), AttributeType: ddbtypes.ScalarAttributeTypeS},
				},
				BillingMode: ddbtypes.BillingModePayPerRequest,
			})
			if createErr == nil {
				return nil
			}
			var inUse *ddbtypes.ResourceInUseException
			if errors.As(createErr, &inUse) {
				return nil
			}
			if !isStartupRetryable(createErr) {
				return createErr
			}
			lastErr = createErr
		} else {
			if !isStartupRetryable(err) {
				return err
			}
			lastErr = err
		}

		if attempt == ensureTableMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ensureTableRetryDelay):
		}
	}
	return fmt.Errorf("ensure dynamodb table %q: %w", table, lastErr)
}

// isStartupRetryable matches the transient errors DynamoDB Local returns while booting.
func isStartupRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "request send failed") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "eof")
}

var _ types.Provider = (*Store)(nil)

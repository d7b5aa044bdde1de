package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-nosql/internal/config"
)

// SchemaAPI is the subset of the DynamoDB client Bootstrap needs.
type SchemaAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// tableSpec describes a table keyed by a single string attribute with
// hash-only string GSIs.
type tableSpec struct {
	name    string
	key     string
	indexes map[string]string // index name -> hash attribute
	ttlAttr string
}

func schema(tables config.DynamoTables) []tableSpec {
	return []tableSpec{
		{
			name:    tables.Accounts,
			key:     fieldAccountID,
			indexes: map[string]string{indexEmail: fieldEmail},
		},
		{
			name:    tables.Sessions,
			key:     fieldSessionID,
			indexes: map[string]string{indexAccountID: fieldAccountID},
			// Expired sessions are reaped by DynamoDB; accounts are only removed by the sweeper.
			ttlAttr: fieldExpiresAt,
		},
	}
}

// Bootstrap creates the accounts and sessions tables if they don't already
// exist and enables TTL where configured. Safe to call on every startup.
func Bootstrap(ctx context.Context, client SchemaAPI, tables config.DynamoTables) error {
	var errs []error
	for _, spec := range schema(tables) {
		if err := createTable(ctx, client, spec.input()); err != nil {
			errs = append(errs, err)
			continue
		}
		if spec.ttlAttr != "" {
			enableTTL(ctx, client, spec.name, spec.ttlAttr)
		}
	}
	return errors.Join(errs...)
}

func (s tableSpec) input() *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String(s.key), AttributeType: types.ScalarAttributeTypeS},
	}
	var gsis []types.GlobalSecondaryIndex
	for index, hashKey := range s.indexes {
		attrs = append(attrs, types.AttributeDefinition{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS})
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName:  aws.String(index),
			KeySchema:  []types.KeySchemaElement{{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash}},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return &dynamodb.CreateTableInput{
		TableName:              aws.String(s.name),
		BillingMode:            types.BillingModePayPerRequest,
		AttributeDefinitions:   attrs,
		KeySchema:              []types.KeySchemaElement{{AttributeName: aws.String(s.key), KeyType: types.KeyTypeHash}},
		GlobalSecondaryIndexes: gsis,
	}
}

// createTable treats an existing table as success.
func createTable(ctx context.Context, client SchemaAPI, input *dynamodb.CreateTableInput) error {
	_, err := client.CreateTable(ctx, input)
	var inUse *types.ResourceInUseException
	switch {
	case err == nil:
		slog.Info("created table", "table", *input.TableName)
	case errors.As(err, &inUse):
	default:
		return fmt.Errorf("create table %s: %w", *input.TableName, err)
	}
	return nil
}

// enableTTL only warns: TTL is already on after the first start and some
// local emulators reject the call.
func enableTTL(ctx context.Context, client SchemaAPI, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}

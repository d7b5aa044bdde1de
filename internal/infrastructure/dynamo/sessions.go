package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-nosql/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the sessions table.
// PK: session_id. GSI account_id-index on account_id.
type SessionRepo struct {
	client    API
	tableName string
}

func NewSessionRepo(client API, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldSessionID, sessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Disable turns a single session off.
func (r *SessionRepo) Disable(ctx context.Context, sessionID string) error {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{
		fieldEnable:    false,
		fieldUpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String(fmt.Sprintf("attribute_exists(%s)", b.name(fieldSessionID))),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	return err
}

// DisableByAccount turns off every enabled session of an account. All
// sessions are attempted; the first failure is returned.
func (r *SessionRepo) DisableByAccount(ctx context.Context, accountID string) error {
	b := newExprBuilder()
	keyCond := fmt.Sprintf("%s = %s", b.name(fieldAccountID), b.value(accountID))
	filter := fmt.Sprintf("%s = %s", b.name(fieldEnable), b.value(true))
	if err := b.err(); err != nil {
		return err
	}
	pager := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexAccountID),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
	})

	var firstErr error
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		for _, item := range page.Items {
			sidAttr, ok := item[fieldSessionID].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if err := r.Disable(ctx, sidAttr.Value); err != nil {
				slog.Warn("failed to disable session", "session_id", sidAttr.Value, "account_id", accountID, "err", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

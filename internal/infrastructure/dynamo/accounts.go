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

// AccountRepo provides typed DynamoDB operations for the accounts table.
// PK: account_id. GSI email-index on email.
type AccountRepo struct {
	client    API
	tableName string
}

func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

// Create inserts a new account. It refuses to overwrite an existing item.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	b := newExprBuilder()
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String(fmt.Sprintf("attribute_not_exists(%s)", b.name(fieldAccountID))),
		ExpressionAttributeNames: b.attrNames(),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account %s already exists: %w", a.AccountID, domain.ErrConflict)
	}
	return err
}

// Get reads an account with strong consistency.
func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	b := newExprBuilder()
	keyCond := fmt.Sprintf("%s = %s", b.name(fieldEmail), b.value(email))
	if err := b.err(); err != nil {
		return nil, err
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteUnverifiedBefore hard-deletes every account that is unverified, was
// created before cutoff, and still holds an email verification code. Each
// delete re-checks those predicates, so an account verified after the scan
// saw it survives. Returns how many accounts were removed; on error the count
// covers deletions made before the failure.
func (r *AccountRepo) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	b := newExprBuilder()
	filter := unverifiedBefore(b, cutoff)
	projection := b.name(fieldAccountID)
	if err := b.err(); err != nil {
		return 0, err
	}

	pager := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ProjectionExpression:      aws.String(projection),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
	})

	deleted := 0
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("scan unverified accounts: %w", err)
		}
		for _, item := range page.Items {
			idAttr, ok := item[fieldAccountID].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			removed, err := r.deleteIfUnverified(ctx, idAttr.Value, cutoff)
			if err != nil {
				return deleted, err
			}
			if removed {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (r *AccountRepo) deleteIfUnverified(ctx context.Context, accountID string, cutoff time.Time) (bool, error) {
	b := newExprBuilder()
	cond := unverifiedBefore(b, cutoff)
	if err := b.err(); err != nil {
		return false, err
	}
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
	})
	if isConditionFailed(err) {
		slog.Debug("sweep skipped account that changed after scan", "account_id", accountID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete account %s: %w", accountID, err)
	}
	return true, nil
}

func unverifiedBefore(b *exprBuilder, cutoff time.Time) string {
	return fmt.Sprintf("%s = %s AND %s < %s AND attribute_exists(%s)",
		b.name(fieldVerified), b.value(false),
		b.name(fieldCreatedAt), b.value(cutoff.Unix()),
		b.name(string(domain.PurposeEmailVerify)+"."+fieldCode),
	)
}

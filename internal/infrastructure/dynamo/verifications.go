package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-auth-nosql/internal/domain"
)

// VerificationRepo manages the one-time-code slots embedded in account items.
// Each purpose maps to one optional map attribute ("email_verify",
// "password_reset") holding {code, expires_at}; a slot is written or removed
// whole, never field by field.
type VerificationRepo struct {
	client    API
	tableName string
}

func NewVerificationRepo(client API, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// Get returns the record for purpose, or nil when the slot is empty.
func (r *VerificationRepo) Get(ctx context.Context, accountID string, purpose domain.Purpose) (*domain.VerificationRecord, error) {
	b := newExprBuilder()
	projection := b.name(fieldAccountID) + ", " + b.name(string(purpose))
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldAccountID, accountID),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     aws.String(projection),
		ExpressionAttributeNames: b.attrNames(),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	av, ok := out.Item[string(purpose)]
	if !ok {
		return nil, nil
	}
	var rec domain.VerificationRecord
	if err := attributevalue.Unmarshal(av, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s record: %w", purpose, err)
	}
	return &rec, nil
}

// Put overwrites the slot unconditionally. The account must exist.
func (r *VerificationRepo) Put(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord) error {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{
		string(purpose): rec,
		fieldUpdatedAt:  time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	cond := fmt.Sprintf("attribute_exists(%s)", b.name(fieldAccountID))
	err = r.updateItem(ctx, accountID, expr, cond, b)
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}

// PutIfIdle overwrites the slot only when it is empty or already expired at
// now. For email verification the account must also still be unverified.
// A failed guard is reported as ErrAlreadyInProgress.
func (r *VerificationRepo) PutIfIdle(ctx context.Context, accountID string, purpose domain.Purpose, rec *domain.VerificationRecord, now time.Time) error {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{
		string(purpose): rec,
		fieldUpdatedAt:  now.Unix(),
	})
	if err != nil {
		return err
	}
	slot := string(purpose)
	cond := fmt.Sprintf("attribute_exists(%s) AND (attribute_not_exists(%s) OR %s < %s)",
		b.name(fieldAccountID),
		b.name(slot),
		b.name(slot+"."+fieldExpiresAt), b.value(now.Unix()),
	)
	if purpose == domain.PurposeEmailVerify {
		cond += fmt.Sprintf(" AND %s = %s", b.name(fieldVerified), b.value(false))
	}
	if err := b.err(); err != nil {
		return err
	}
	err = r.updateItem(ctx, accountID, expr, cond, b)
	if isConditionFailed(err) {
		return fmt.Errorf("%s code still pending: %w", purpose, domain.ErrAlreadyInProgress)
	}
	return err
}

// Clear empties the slot.
func (r *VerificationRepo) Clear(ctx context.Context, accountID string, purpose domain.Purpose) error {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{fieldUpdatedAt: time.Now().Unix()}, string(purpose))
	if err != nil {
		return err
	}
	cond := fmt.Sprintf("attribute_exists(%s)", b.name(fieldAccountID))
	err = r.updateItem(ctx, accountID, expr, cond, b)
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}

// Redeem consumes the slot if it holds code and has not expired at now,
// applying updates to the account in the same write. Exactly one of several
// concurrent redemptions of the same code can succeed; the rest get
// ErrInvalidOrExpired.
func (r *VerificationRepo) Redeem(ctx context.Context, accountID string, purpose domain.Purpose, code string, now time.Time, updates map[string]interface{}) error {
	set := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set[fieldUpdatedAt] = now.Unix()

	b := newExprBuilder()
	slot := string(purpose)
	expr, err := b.update(set, slot)
	if err != nil {
		return err
	}
	cond := fmt.Sprintf("%s = %s AND %s >= %s",
		b.name(slot+"."+fieldCode), b.value(code),
		b.name(slot+"."+fieldExpiresAt), b.value(now.Unix()),
	)
	if err := b.err(); err != nil {
		return err
	}
	err = r.updateItem(ctx, accountID, expr, cond, b)
	if isConditionFailed(err) {
		return fmt.Errorf("redeem %s code: %w", purpose, domain.ErrInvalidOrExpired)
	}
	return err
}

func (r *VerificationRepo) updateItem(ctx context.Context, accountID, expr, cond string, b *exprBuilder) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  b.attrNames(),
		ExpressionAttributeValues: b.attrValues(),
	})
	return err
}

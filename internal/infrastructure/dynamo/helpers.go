package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// isConditionFailed reports whether err is a failed ConditionExpression.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// exprBuilder hands out placeholders for attribute names and values so that
// update, condition, filter, and projection expressions of one request share
// a single pair of substitution maps.
type exprBuilder struct {
	names    map[string]string // placeholder -> attribute
	byAttr   map[string]string // attribute -> placeholder
	values   map[string]types.AttributeValue
	nextVal  int
	firstErr error
}

func newExprBuilder() *exprBuilder {
	return &exprBuilder{
		names:  make(map[string]string),
		byAttr: make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

// name returns the placeholder path for a possibly dotted attribute path,
// e.g. "email_verify.code" -> "#n0.#n1".
func (b *exprBuilder) name(path string) string {
	parts := strings.Split(path, ".")
	for i, attr := range parts {
		ph, ok := b.byAttr[attr]
		if !ok {
			ph = fmt.Sprintf("#n%d", len(b.byAttr))
			b.byAttr[attr] = ph
			b.names[ph] = attr
		}
		parts[i] = ph
	}
	return strings.Join(parts, ".")
}

// value marshals v and returns its placeholder. Marshal errors are kept and
// reported by err.
func (b *exprBuilder) value(v interface{}) string {
	ph := fmt.Sprintf(":v%d", b.nextVal)
	b.nextVal++
	av, err := attributevalue.Marshal(v)
	if err != nil {
		if b.firstErr == nil {
			b.firstErr = fmt.Errorf("marshal %s: %w", ph, err)
		}
		return ph
	}
	b.values[ph] = av
	return ph
}

func (b *exprBuilder) err() error { return b.firstErr }

// attrNames returns nil when no names were used; DynamoDB rejects empty maps.
func (b *exprBuilder) attrNames() map[string]string {
	if len(b.names) == 0 {
		return nil
	}
	return b.names
}

func (b *exprBuilder) attrValues() map[string]types.AttributeValue {
	if len(b.values) == 0 {
		return nil
	}
	return b.values
}

// update builds "SET a = :v, ... REMOVE b, ..." with keys in sorted order so
// the expression is deterministic.
func (b *exprBuilder) update(set map[string]interface{}, remove ...string) (string, error) {
	if len(set) == 0 && len(remove) == 0 {
		return "", errors.New("no fields to update")
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i == 0 {
			sb.WriteString("SET ")
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = %s", b.name(k), b.value(set[k]))
	}
	for i, r := range remove {
		switch {
		case i > 0:
			sb.WriteString(", ")
		case len(keys) > 0:
			sb.WriteString(" REMOVE ")
		default:
			sb.WriteString("REMOVE ")
		}
		sb.WriteString(b.name(r))
	}
	return sb.String(), b.err()
}

package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_SingleField(t *testing.T) {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SET #n0 = :v0", expr)
	assert.Equal(t, map[string]string{"#n0": "name"}, b.attrNames())
	_, ok := b.attrValues()[":v0"]
	assert.True(t, ok)
}

func TestUpdate_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"email":         "a@b.com",
		"name":          "Alice",
		"password_hash": "x",
	}
	b1, b2 := newExprBuilder(), newExprBuilder()
	expr1, err := b1.update(updates)
	require.NoError(t, err)
	expr2, err := b2.update(updates)
	require.NoError(t, err)

	assert.Equal(t, expr1, expr2)
	names := b1.attrNames()
	assert.Equal(t, "email", names["#n0"])
	assert.Equal(t, "name", names["#n1"])
	assert.Equal(t, "password_hash", names["#n2"])
	assert.Equal(t, "SET #n0 = :v0, #n1 = :v1, #n2 = :v2", expr1)
}

func TestUpdate_SetAndRemove(t *testing.T) {
	b := newExprBuilder()
	expr, err := b.update(map[string]interface{}{"verified": true}, "email_verify")
	require.NoError(t, err)
	assert.Equal(t, "SET #n0 = :v0 REMOVE #n1", expr)
	assert.Equal(t, "email_verify", b.attrNames()["#n1"])
}

func TestUpdate_RemoveOnly(t *testing.T) {
	b := newExprBuilder()
	expr, err := b.update(nil, "password_reset", "email_verify")
	require.NoError(t, err)
	assert.Equal(t, "REMOVE #n0, #n1", expr)
	assert.Nil(t, b.attrValues())
}

func TestUpdate_ValuesMarshalledCorrectly(t *testing.T) {
	b := newExprBuilder()
	_, err := b.update(map[string]interface{}{"enable": true})
	require.NoError(t, err)
	av, ok := b.attrValues()[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestUpdate_EmptyMap_ReturnsError(t *testing.T) {
	_, err := newExprBuilder().update(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestExprBuilder_NestedPathReusesPlaceholders(t *testing.T) {
	b := newExprBuilder()
	assert.Equal(t, "#n0.#n1", b.name("email_verify.code"))
	assert.Equal(t, "#n0.#n2", b.name("email_verify.expires_at"))
	assert.Equal(t, "#n1", b.name("code"))
	assert.Equal(t, map[string]string{"#n0": "email_verify", "#n1": "code", "#n2": "expires_at"}, b.attrNames())
}

func TestExprBuilder_EmptyMapsAreNil(t *testing.T) {
	b := newExprBuilder()
	assert.Nil(t, b.attrNames())
	assert.Nil(t, b.attrValues())
}

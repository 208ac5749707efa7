package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEditable_DropsUnknownFields(t *testing.T) {
	updates, err := FilterEditable(map[string]any{
		"charge_amt": 150.0,
		"patient_id": 99.0,   // read-only identity column
		"first_name": "Mary", // read-only identity column
		"not_a_col":  "x",
	})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "charge_amt", updates[0].Field.Name)
	assert.Equal(t, 150.0, updates[0].Value)
}

func TestFilterEditable_PreservesRegistryOrder(t *testing.T) {
	// Body order is map order; output must follow the registry instead
	updates, err := FilterEditable(map[string]any{
		"claim_status": "PAID",
		"oa_claim_id":  "OA-1",
		"charge_amt":   10.0,
	})
	require.NoError(t, err)
	require.Len(t, updates, 3)
	assert.Equal(t, "oa_claim_id", updates[0].Field.Name)
	assert.Equal(t, "charge_amt", updates[1].Field.Name)
	assert.Equal(t, "claim_status", updates[2].Field.Name)
}

func TestFilterEditable_NumericCoercion(t *testing.T) {
	updates, err := FilterEditable(map[string]any{"charge_amt": "150.50"})
	require.NoError(t, err)
	assert.Equal(t, 150.5, updates[0].Value)

	// Empty string clears the column
	updates, err = FilterEditable(map[string]any{"charge_amt": ""})
	require.NoError(t, err)
	assert.Nil(t, updates[0].Value)

	_, err = FilterEditable(map[string]any{"charge_amt": "lots"})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "charge_amt", ve.Field)
}

func TestFilterEditable_DateCoercion(t *testing.T) {
	updates, err := FilterEditable(map[string]any{"charge_dt": "2024-03-15"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", updates[0].Value)

	// Full timestamps collapse to the date part
	updates, err = FilterEditable(map[string]any{"charge_dt": "2024-03-15T10:30:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", updates[0].Value)

	updates, err = FilterEditable(map[string]any{"charge_dt": ""})
	require.NoError(t, err)
	assert.Nil(t, updates[0].Value)

	_, err = FilterEditable(map[string]any{"charge_dt": "15/03/2024"})
	require.Error(t, err)
}

func TestFilterEditable_TextCoercion(t *testing.T) {
	updates, err := FilterEditable(map[string]any{"prim_cmt": 42.0})
	require.NoError(t, err)
	assert.Equal(t, "42", updates[0].Value)

	updates, err = FilterEditable(map[string]any{"prim_cmt": true})
	require.NoError(t, err)
	assert.Equal(t, "true", updates[0].Value)
}

func TestLookupField(t *testing.T) {
	f, ok := LookupField("sec_denial_code")
	require.True(t, ok)
	assert.Equal(t, KindText, f.Kind)

	_, ok = LookupField("patient_id")
	assert.False(t, ok)
}

func TestIsDateField(t *testing.T) {
	assert.True(t, IsDateField("prim_post_dt"))
	assert.False(t, IsDateField("prim_amt"))
	assert.False(t, IsDateField("no_such_field"))
}

func TestFieldAccessorsCoverEveryRegistryEntry(t *testing.T) {
	claim := &Claim{}
	for _, f := range EditableFields {
		assert.Nil(t, f.Value(claim), "empty claim should read nil for %s", f.Name)
	}

	status := "DENIED"
	amt := 12.5
	claim.ClaimStatus = &status
	claim.ChargeAmt = &amt

	f, _ := LookupField("claim_status")
	assert.Equal(t, "DENIED", f.Value(claim))
	f, _ = LookupField("charge_amt")
	assert.Equal(t, 12.5, f.Value(claim))
}

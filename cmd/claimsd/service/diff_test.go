package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbox/claimtrack/common/models"
)

func fieldUpdate(t *testing.T, name string, value any) models.FieldUpdate {
	t.Helper()
	f, ok := models.LookupField(name)
	require.True(t, ok, "unknown field %s", name)
	return models.FieldUpdate{Field: f, Value: value}
}

func TestComputeDiff_ReportsChangedFieldsOnly(t *testing.T) {
	charge := 100.0
	status := "PENDING"
	old := &models.Claim{ID: 42, ChargeAmt: &charge, ClaimStatus: &status}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "charge_amt", 150.0),
		fieldUpdate(t, "claim_status", "PENDING"), // unchanged
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "charge_amt", changes[0].FieldName)
	require.NotNil(t, changes[0].OldValue)
	require.NotNil(t, changes[0].NewValue)
	assert.Equal(t, "100", *changes[0].OldValue)
	assert.Equal(t, "150", *changes[0].NewValue)
}

func TestComputeDiff_NullEmptyAndWhitespaceAreEqual(t *testing.T) {
	empty := ""
	padded := "  "
	old := &models.Claim{ID: 1, PrimCmt: &empty, SecCmt: &padded}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "prim_cmt", nil),
		fieldUpdate(t, "sec_cmt", nil),
		fieldUpdate(t, "prim_ins", nil), // nil -> nil
	})
	assert.Empty(t, changes)
}

func TestComputeDiff_NullToValue(t *testing.T) {
	old := &models.Claim{ID: 1}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "prim_ins", "Aetna"),
	})

	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].OldValue)
	require.NotNil(t, changes[0].NewValue)
	assert.Equal(t, "Aetna", *changes[0].NewValue)
}

func TestComputeDiff_ValueToNull(t *testing.T) {
	ins := "Cigna"
	old := &models.Claim{ID: 1, SecIns: &ins}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "sec_ins", nil),
	})

	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].OldValue)
	assert.Equal(t, "Cigna", *changes[0].OldValue)
	assert.Nil(t, changes[0].NewValue)
}

func TestComputeDiff_TrimmedStringsCompareEqual(t *testing.T) {
	val := "PAID "
	old := &models.Claim{ID: 1, ClaimStatus: &val}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "claim_status", "PAID"),
	})
	assert.Empty(t, changes)
}

func TestComputeDiff_FloatsRenderWithoutTrailingZeros(t *testing.T) {
	amt := 99.5
	old := &models.Claim{ID: 1, BalAmt: &amt}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "bal_amt", 100.25),
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "99.5", *changes[0].OldValue)
	assert.Equal(t, "100.25", *changes[0].NewValue)
}

func TestComputeDiff_IsPure(t *testing.T) {
	charge := 100.0
	old := &models.Claim{ID: 42, ChargeAmt: &charge}
	updates := []models.FieldUpdate{fieldUpdate(t, "charge_amt", 150.0)}

	first := ComputeDiff(old, updates)
	second := ComputeDiff(old, updates)

	assert.Equal(t, first, second)
	assert.Equal(t, 100.0, *old.ChargeAmt, "input row must not be mutated")
}

func TestComputeDiff_PreservesUpdateOrder(t *testing.T) {
	old := &models.Claim{ID: 1}

	changes := ComputeDiff(old, []models.FieldUpdate{
		fieldUpdate(t, "charge_amt", 10.0),
		fieldUpdate(t, "prim_ins", "BCBS"),
		fieldUpdate(t, "claim_status", "OPEN"),
	})

	require.Len(t, changes, 3)
	assert.Equal(t, "charge_amt", changes[0].FieldName)
	assert.Equal(t, "prim_ins", changes[1].FieldName)
	assert.Equal(t, "claim_status", changes[2].FieldName)
}

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldKind classifies an editable claim column for validation.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumeric
	KindDate
)

// Field is one entry of the editable-field registry: the column name, its
// kind, and an accessor for the current value on a claim row. The registry is
// the single source of truth for the update allow-list, the diff engine, and
// the SET clause builder.
type Field struct {
	Name  string
	Kind  FieldKind
	Value func(*Claim) any
}

// FieldUpdate is a validated field/value pair destined for an UPDATE.
// Value is nil, string, or float64 after validation.
type FieldUpdate struct {
	Field Field
	Value any
}

// ValidationError reports a request value that does not fit its field's kind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// EditableFields lists every claim column the update endpoint may touch, in
// the order changes are diffed and logged. Fields absent from this registry
// are silently dropped from update requests.
var EditableFields = []Field{
	{Name: "oa_claim_id", Kind: KindText, Value: func(c *Claim) any { return str(c.OaClaimID) }},
	{Name: "oa_visit_id", Kind: KindText, Value: func(c *Claim) any { return str(c.OaVisitID) }},
	{Name: "charge_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.ChargeDt) }},
	{Name: "charge_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.ChargeAmt) }},
	{Name: "allowed_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.AllowedAmt) }},
	{Name: "allowed_add_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.AllowedAddAmt) }},
	{Name: "allowed_exp_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.AllowedExpAmt) }},
	{Name: "prim_ins", Kind: KindText, Value: func(c *Claim) any { return str(c.PrimIns) }},
	{Name: "prim_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.PrimAmt) }},
	{Name: "prim_post_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.PrimPostDt) }},
	{Name: "prim_chk_det", Kind: KindText, Value: func(c *Claim) any { return str(c.PrimChkDet) }},
	{Name: "prim_recv_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.PrimRecvDt) }},
	{Name: "prim_chk_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.PrimChkAmt) }},
	{Name: "prim_cmt", Kind: KindText, Value: func(c *Claim) any { return str(c.PrimCmt) }},
	{Name: "sec_ins", Kind: KindText, Value: func(c *Claim) any { return str(c.SecIns) }},
	{Name: "sec_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.SecAmt) }},
	{Name: "sec_post_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.SecPostDt) }},
	{Name: "sec_chk_det", Kind: KindText, Value: func(c *Claim) any { return str(c.SecChkDet) }},
	{Name: "sec_recv_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.SecRecvDt) }},
	{Name: "sec_chk_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.SecChkAmt) }},
	{Name: "sec_cmt", Kind: KindText, Value: func(c *Claim) any { return str(c.SecCmt) }},
	{Name: "sec_denial_code", Kind: KindText, Value: func(c *Claim) any { return str(c.SecDenialCode) }},
	{Name: "pat_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.PatAmt) }},
	{Name: "pat_recv_dt", Kind: KindDate, Value: func(c *Claim) any { return str(c.PatRecvDt) }},
	{Name: "total_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.TotalAmt) }},
	{Name: "charges_adj_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.ChargesAdjAmt) }},
	{Name: "write_off_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.WriteOffAmt) }},
	{Name: "bal_amt", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.BalAmt) }},
	{Name: "reimb_pct", Kind: KindNumeric, Value: func(c *Claim) any { return num(c.ReimbPct) }},
	{Name: "claim_status", Kind: KindText, Value: func(c *Claim) any { return str(c.ClaimStatus) }},
	{Name: "claim_status_type", Kind: KindText, Value: func(c *Claim) any { return str(c.ClaimStatusType) }},
}

var fieldByName = func() map[string]Field {
	m := make(map[string]Field, len(EditableFields))
	for _, f := range EditableFields {
		m[f.Name] = f
	}
	return m
}()

// LookupField returns the registry entry for an editable field name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldByName[name]
	return f, ok
}

// IsDateField reports whether name is an editable date column. Used by the
// client to normalize values to YYYY-MM-DD before sending.
func IsDateField(name string) bool {
	f, ok := fieldByName[name]
	return ok && f.Kind == KindDate
}

// FilterEditable restricts a raw request body to the editable-field registry,
// validating each value against its kind. Unknown fields are dropped without
// error; the allow-list is the only write-authorization mechanism. The result
// preserves registry order.
func FilterEditable(body map[string]any) ([]FieldUpdate, error) {
	var updates []FieldUpdate
	for _, f := range EditableFields {
		raw, ok := body[f.Name]
		if !ok {
			continue
		}
		v, err := coerceValue(f, raw)
		if err != nil {
			return nil, err
		}
		updates = append(updates, FieldUpdate{Field: f, Value: v})
	}
	return updates, nil
}

func coerceValue(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch f.Kind {
	case KindNumeric:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return nil, nil
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &ValidationError{Field: f.Name, Reason: "not a number"}
			}
			return n, nil
		default:
			return nil, &ValidationError{Field: f.Name, Reason: "not a number"}
		}
	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, &ValidationError{Field: f.Name, Reason: "not a date string"}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
		return nil, &ValidationError{Field: f.Name, Reason: "expected YYYY-MM-DD"}
	default:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		default:
			return nil, &ValidationError{Field: f.Name, Reason: "unsupported value type"}
		}
	}
}

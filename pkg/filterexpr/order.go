package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type orderClause struct {
	primaryKey    string
	primaryDesc   bool
	secondaryKey  string
	secondaryDesc bool
}

// bindOrder parses "key [asc|desc], key [asc|desc]" against the whitelist and
// writes the resolved keys onto the binding struct's order fields.
func bindOrder(dest reflect.Value, raw string, schema Ordering) error {
	clause, err := parseOrder(raw, schema)
	if err != nil {
		return err
	}
	for _, pair := range []struct {
		name  string
		value any
	}{
		{"PrimaryKey", clause.primaryKey},
		{"PrimaryDesc", clause.primaryDesc},
		{"SecondaryKey", clause.secondaryKey},
		{"SecondaryDesc", clause.secondaryDesc},
	} {
		field := dest.FieldByName(pair.name)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("binding struct %s has no settable field %q", dest.Type(), pair.name)
		}
		field.Set(reflect.ValueOf(pair.value))
	}
	return nil
}

func parseOrder(raw string, schema Ordering) (orderClause, error) {
	if schema.Default == "" || schema.Fallback == "" {
		return orderClause{}, errors.New("order schema requires default and fallback keys")
	}
	if _, ok := schema.Keys[schema.Default]; !ok {
		return orderClause{}, fmt.Errorf("default order key %q missing from schema", schema.Default)
	}
	if _, ok := schema.Keys[schema.Fallback]; !ok {
		return orderClause{}, fmt.Errorf("fallback order key %q missing from schema", schema.Fallback)
	}

	clause := orderClause{
		primaryKey:   schema.Default,
		primaryDesc:  schema.DefaultDesc,
		secondaryKey: schema.Fallback,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clause, nil
	}

	idx := 0
	seen := map[string]bool{}
	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parts := strings.Fields(segment)
		key := parts[0]
		if _, ok := schema.Keys[key]; !ok {
			return orderClause{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}
		if seen[key] {
			return orderClause{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = true

		desc := false
		switch {
		case len(parts) == 1:
		case len(parts) == 2 && strings.EqualFold(parts[1], "asc"):
		case len(parts) == 2 && strings.EqualFold(parts[1], "desc"):
			desc = true
		default:
			return orderClause{}, fmt.Errorf("invalid order segment %q", segment)
		}

		switch idx {
		case 0:
			clause.primaryKey = key
			clause.primaryDesc = desc
		case 1:
			clause.secondaryKey = key
			clause.secondaryDesc = desc
		default:
			return orderClause{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	// The tiebreaker must differ from the primary or ordering is not stable.
	if clause.secondaryKey == clause.primaryKey {
		clause.secondaryKey = schema.Fallback
		clause.secondaryDesc = false
		if clause.secondaryKey == clause.primaryKey {
			clause.secondaryKey = schema.Default
			clause.secondaryDesc = schema.DefaultDesc
		}
		if clause.secondaryKey == clause.primaryKey {
			return orderClause{}, errors.New("order schema needs two distinct keys")
		}
	}
	return clause, nil
}

// SQLExpr renders the resolved order keys into an ORDER BY fragment using the
// schema's SQL expressions. Keys are schema-validated, never caller input.
func (o Ordering) SQLExpr(primaryKey string, primaryDesc bool, secondaryKey string, secondaryDesc bool) string {
	dir := func(desc bool) string {
		if desc {
			return " DESC"
		}
		return " ASC"
	}
	primary, ok := o.Keys[primaryKey]
	if !ok {
		primary = o.Keys[o.Default]
	}
	secondary, ok := o.Keys[secondaryKey]
	if !ok {
		secondary = o.Keys[o.Fallback]
	}
	return primary.Expr + dir(primaryDesc) + ", " + secondary.Expr + dir(secondaryDesc)
}

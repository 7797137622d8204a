package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// CatalogEntry is one authorized cloud offering from the registry snapshot.
type CatalogEntry struct {
	ExternalID  string    `json:"external_id"`
	Provider    string    `json:"provider"`
	Offering    string    `json:"offering"`
	Description string    `json:"description"`
	SubServices []string  `json:"sub_services"`
	Status      string    `json:"status"`
	ImpactLevel string    `json:"impact_level"`
	Agencies    string    `json:"agencies"`
	AuthDate    string    `json:"auth_date"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

func (e CatalogEntry) HasSubServices() bool {
	return len(e.SubServices) > 0
}

type FieldKind int

const (
	FieldNull FieldKind = iota
	FieldScalar
	FieldList
	FieldObject
)

// FieldValue holds a registry attribute whose JSON shape is not stable:
// the same key may carry a string, a number, a list or an object.
type FieldValue struct {
	Kind   FieldKind
	Scalar string
	List   []FieldValue
	Object json.RawMessage
}

func ScalarField(v string) FieldValue {
	return FieldValue{Kind: FieldScalar, Scalar: v}
}

func ListField(items ...string) FieldValue {
	list := make([]FieldValue, 0, len(items))
	for _, item := range items {
		list = append(list, ScalarField(item))
	}
	return FieldValue{Kind: FieldList, List: list}
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = FieldValue{Kind: FieldNull}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = ScalarField(s)
	case '[':
		var items []FieldValue
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*v = FieldValue{Kind: FieldList, List: items}
	case '{':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return err
		}
		*v = FieldValue{Kind: FieldObject, Object: json.RawMessage(compact.Bytes())}
	default:
		// numbers and booleans keep their literal text
		*v = ScalarField(string(trimmed))
	}
	return nil
}

// Display renders the value as the single string stored alongside
// classifications: list items joined with ", ", objects as compact JSON,
// null as the empty string.
func (v FieldValue) Display() string {
	switch v.Kind {
	case FieldScalar:
		return v.Scalar
	case FieldList:
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, item.Display())
		}
		return strings.Join(parts, ", ")
	case FieldObject:
		return string(v.Object)
	default:
		return ""
	}
}

// Strings flattens the value into a list, used for sub-service names.
func (v FieldValue) Strings() []string {
	switch v.Kind {
	case FieldList:
		out := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if s := item.Display(); s != "" {
				out = append(out, s)
			}
		}
		return out
	case FieldScalar, FieldObject:
		if s := v.Display(); s != "" {
			return []string{s}
		}
	}
	return nil
}

// Package reshape maps a flat RawRow onto a structured domain.User.
//
// Column names follow a prefix convention:
//
//	name.<anything>     fragments of the display name, joined in header order
//	age                 integer age
//	address.<field>     one entry of the address object, keyed by <field>
//	<anything else>     copied verbatim into the extra object
//
// All classification goes through Classify so the rules live in one place.
package reshape

import (
	"strconv"
	"strings"

	"agereport/internal/domain"
	"agereport/internal/records"
)

const (
	namePrefix    = "name."
	addressPrefix = "address."
	ageKey        = "age"
)

// Kind tags the role a column plays in the structured record.
type Kind int

const (
	KindExtra Kind = iota
	KindNameFragment
	KindAge
	KindAddressField
)

func (k Kind) String() string {
	switch k {
	case KindNameFragment:
		return "name"
	case KindAge:
		return "age"
	case KindAddressField:
		return "address"
	default:
		return "extra"
	}
}

// Field is the classification of one column name. Key is the address
// sub-key for KindAddressField, the column name itself for KindExtra, and
// empty otherwise.
type Field struct {
	Kind Kind
	Key  string
}

// Classify assigns a column name to exactly one Kind. Prefix checks are
// case-sensitive.
func Classify(column string) Field {
	switch {
	case strings.HasPrefix(column, namePrefix):
		return Field{Kind: KindNameFragment}
	case column == ageKey:
		return Field{Kind: KindAge}
	case strings.HasPrefix(column, addressPrefix):
		return Field{Kind: KindAddressField, Key: column[len(addressPrefix):]}
	default:
		return Field{Kind: KindExtra, Key: column}
	}
}

// Reshape builds the structured record for row. It never fails: absent
// values are skipped and a bad age falls back to domain.DefaultAge. Address
// and Extra are always non-nil.
func Reshape(row records.RawRow) domain.User {
	u := domain.User{
		Age:     domain.DefaultAge,
		Address: map[string]string{},
		Extra:   map[string]string{},
	}
	var name []string
	for col, v := range row.All() {
		if !v.Present {
			continue
		}
		f := Classify(col)
		switch f.Kind {
		case KindNameFragment:
			name = append(name, strings.TrimSpace(v.S))
		case KindAge:
			u.Age = ParseAge(v.S)
		case KindAddressField:
			u.Address[f.Key] = v.S
		case KindExtra:
			u.Extra[f.Key] = v.S
		}
	}
	u.Name = strings.TrimSpace(strings.Join(name, " "))
	return u
}

// All reshapes rows in order.
func All(rows []records.RawRow) []domain.User {
	out := make([]domain.User, len(rows))
	for i, r := range rows {
		out[i] = Reshape(r)
	}
	return out
}

// ParseAge parses a base-10 integer, tolerating surrounding whitespace and a
// leading sign. The result must fit the store's 32-bit integer column;
// anything else, out-of-range values included, returns domain.DefaultAge.
func ParseAge(s string) int {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return domain.DefaultAge
	}
	return int(n)
}

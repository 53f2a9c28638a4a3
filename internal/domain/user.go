// Package domain holds the business objects of the user import: the
// structured user record built from one CSV row, the age buckets used for
// reporting, and the error kinds shared across the pipeline.
package domain

// DefaultAge is stored when the "age" column is absent, empty, or not an
// integer.
const DefaultAge = 0

// User is the structured record derived from one CSV data row.
type User struct {
	Name    string
	Age     int
	Address map[string]string
	Extra   map[string]string
}

// Equal reports whether u and o carry the same name, age, and map contents.
// A nil map and an empty map compare equal.
func (u User) Equal(o User) bool {
	if u.Name != o.Name || u.Age != o.Age {
		return false
	}
	return sameStrings(u.Address, o.Address) && sameStrings(u.Extra, o.Extra)
}

func sameStrings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

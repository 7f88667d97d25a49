package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Identifier is the loosely-typed "who" of an inbound request: clients send
// either a numeric user id, a numeric string, or an arbitrary display name,
// and historically every layer re-inspected the raw value to decide which.
//
// Instead, the raw value is parsed ONCE at the HTTP boundary into this tagged
// union. Internal code asks Numeric()/Name() and never sees the raw type
// again.
//
// A numeric identifier keeps its string form too: "12345" is tried as id
// 12345 first, but if no such user exists the resolver falls back to a user
// literally named "12345".
type Identifier struct {
	num     int64
	name    string
	numeric bool
}

// NumericIdentifier builds an Identifier from a known user id, e.g. the
// subject of a validated JWT or a referrer id read back from the store.
func NumericIdentifier(id int64) Identifier {
	return Identifier{num: id, name: strconv.FormatInt(id, 10), numeric: true}
}

// ParseIdentifier classifies a raw string. Whitespace is trimmed; a string
// of pure digits (with optional sign) is numeric, anything else is a name.
func ParseIdentifier(raw string) Identifier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Identifier{num: n, name: raw, numeric: true}
	}
	return Identifier{name: raw}
}

// Numeric returns the identifier's numeric value if it has one.
func (id Identifier) Numeric() (int64, bool) {
	return id.num, id.numeric
}

// Name returns the string form of the identifier (the display name, or the
// decimal text of a numeric id).
func (id Identifier) Name() string {
	return id.name
}

// IsZero reports whether the identifier is empty/absent.
func (id Identifier) IsZero() bool {
	return id.name == "" && !id.numeric
}

func (id Identifier) String() string {
	return id.name
}

// UnmarshalJSON accepts a JSON number, a numeric string, or a plain string,
// so request structs can declare an Identifier field directly and handlers
// never touch the raw value. null and absent both yield the zero Identifier.
func (id *Identifier) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = Identifier{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*id = ParseIdentifier(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = NumericIdentifier(i)
		return nil
	}
	// A non-integer number (e.g. 1.5) is nobody's id; keep the text so the
	// resolver can still try it as a username.
	*id = Identifier{name: n.String()}
	return nil
}

// MarshalJSON renders numeric identifiers as numbers and names as strings.
func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return json.Marshal(id.num)
	}
	return json.Marshal(id.name)
}

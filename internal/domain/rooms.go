package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RoomsKind discriminates the three shapes a rooms field can take on the
// wire: absent, a structured map of room type to count, or an opaque string
// the source system failed to encode (sometimes double-encoded JSON).
type RoomsKind int

const (
	RoomsAbsent RoomsKind = iota
	RoomsStructured
	RoomsRaw
)

// Rooms is a defensive sum type for the free-form rooms structure attached
// to property details. The upstream feed sends it either as a JSON object
// ({"bedroom": 3, "bath": 2}) or as a JSON-encoded string of that object.
// Consumers must not guess; they branch on Kind.
//
// Rooms implements json.Marshaler/Unmarshaler for the wire format and
// driver.Valuer/sql.Scanner so GORM can persist it in a TEXT/JSON column.
type Rooms struct {
	kind RoomsKind
	m    map[string]any
	raw  string
}

// StructuredRooms builds a Rooms value from a parsed map.
func StructuredRooms(m map[string]any) Rooms {
	if m == nil {
		return Rooms{}
	}
	return Rooms{kind: RoomsStructured, m: m}
}

// RawRooms builds a Rooms value that preserves an unparseable string as-is.
func RawRooms(s string) Rooms { return Rooms{kind: RoomsRaw, raw: s} }

// Kind reports which variant this value holds.
func (r Rooms) Kind() RoomsKind { return r.kind }

// Map returns the structured variant. The second result is false unless
// Kind() == RoomsStructured.
func (r Rooms) Map() (map[string]any, bool) { return r.m, r.kind == RoomsStructured }

// Raw returns the opaque string variant. The second result is false unless
// Kind() == RoomsRaw.
func (r Rooms) Raw() (string, bool) { return r.raw, r.kind == RoomsRaw }

// ParseRooms interprets an arbitrary decoded JSON value as a Rooms field.
// Maps become Structured. Strings are first re-parsed as JSON objects (the
// double-encoding case); anything that still does not parse is kept Raw.
// Nil yields Absent.
func ParseRooms(v any) Rooms {
	switch t := v.(type) {
	case nil:
		return Rooms{}
	case map[string]any:
		return StructuredRooms(t)
	case string:
		if t == "" {
			return Rooms{}
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err == nil {
			return StructuredRooms(m)
		}
		return RawRooms(t)
	default:
		// Numbers, arrays, booleans: nothing sensible to do but keep the text.
		b, err := json.Marshal(t)
		if err != nil {
			return Rooms{}
		}
		return RawRooms(string(b))
	}
}

// MarshalJSON encodes Structured as an object, Raw as a string, and Absent
// as null.
func (r Rooms) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RoomsStructured:
		return json.Marshal(r.m)
	case RoomsRaw:
		return json.Marshal(r.raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the wire value defensively; see ParseRooms.
func (r *Rooms) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = ParseRooms(v)
	return nil
}

// Value implements driver.Valuer; Absent persists as NULL.
func (r Rooms) Value() (driver.Value, error) {
	if r.kind == RoomsAbsent {
		return nil, nil
	}
	b, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/JSON columns.
func (r *Rooms) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*r = Rooms{}
		return nil
	case []byte:
		return r.UnmarshalJSON(t)
	case string:
		return r.UnmarshalJSON([]byte(t))
	default:
		return fmt.Errorf("rooms: cannot scan %T", src)
	}
}

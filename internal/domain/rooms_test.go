package domain

import (
	"encoding/json"
	"testing"
)

func TestParseRooms_Map(t *testing.T) {
	r := ParseRooms(map[string]any{"bedroom": float64(3), "bath": float64(2)})
	if r.Kind() != RoomsStructured {
		t.Fatalf("kind = %v", r.Kind())
	}
	m, ok := r.Map()
	if !ok || m["bedroom"] != float64(3) {
		t.Fatalf("map = %v ok=%v", m, ok)
	}
}

func TestParseRooms_DoubleEncodedString(t *testing.T) {
	r := ParseRooms(`{"bedroom": 1}`)
	if r.Kind() != RoomsStructured {
		t.Fatalf("double-encoded object should parse structured, kind = %v", r.Kind())
	}
}

func TestParseRooms_OpaqueString(t *testing.T) {
	r := ParseRooms("3 bed, 2 bath")
	if r.Kind() != RoomsRaw {
		t.Fatalf("kind = %v", r.Kind())
	}
	s, ok := r.Raw()
	if !ok || s != "3 bed, 2 bath" {
		t.Fatalf("raw = %q ok=%v", s, ok)
	}
}

func TestParseRooms_NilAndEmpty(t *testing.T) {
	if ParseRooms(nil).Kind() != RoomsAbsent {
		t.Fatal("nil should be absent")
	}
	if ParseRooms("").Kind() != RoomsAbsent {
		t.Fatal("empty string should be absent")
	}
}

func TestRooms_JSONRoundTrip(t *testing.T) {
	in := StructuredRooms(map[string]any{"office": float64(4)})
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Rooms
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, ok := out.Map()
	if !ok || m["office"] != float64(4) {
		t.Fatalf("round trip lost data: %v", m)
	}
}

func TestRooms_MarshalAbsentAsNull(t *testing.T) {
	b, err := json.Marshal(Rooms{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("absent rooms = %s", b)
	}
}

func TestRooms_ValueAndScan(t *testing.T) {
	v, err := RawRooms("weird").Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("driver value type %T", v)
	}

	var r Rooms
	if err := r.Scan(s); err != nil {
		t.Fatalf("scan: %v", err)
	}
	raw, ok := r.Raw()
	if !ok || raw != "weird" {
		t.Fatalf("scan round trip: %q ok=%v", raw, ok)
	}

	// Absent persists as NULL and scans back as absent.
	v, err = (Rooms{}).Value()
	if err != nil || v != nil {
		t.Fatalf("absent value = %v err=%v", v, err)
	}
	if err := r.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if r.Kind() != RoomsAbsent {
		t.Fatalf("kind after nil scan = %v", r.Kind())
	}
}

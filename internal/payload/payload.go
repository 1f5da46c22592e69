// Package payload interprets inbound webhook bodies. External feeds post
// listings in several loosely related shapes (wrapped arrays, bare objects,
// URL-encoded forms, occasionally garbage), so all of the guessing lives
// here as pure functions with no transport or persistence dependencies.
package payload

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default values applied while normalizing an incoming listing.
const (
	DefaultTitle = "Untitled Property"
	DefaultType  = "Other"
)

// RawKey is the map key under which an unparseable body is preserved for
// later inspection. A raw-only payload yields zero candidate listings.
const RawKey = "raw"

// Parse decodes a request body according to its Content-Type.
//
//   - application/json: decoded as arbitrary JSON (object or array). Bodies
//     that fail to decode degrade to the opaque-raw shape below instead of
//     erroring, so a garbled delivery never takes down the endpoint.
//   - application/x-www-form-urlencoded: decoded into a flat string map;
//     repeated keys keep the first value.
//   - anything else: preserved as {"raw": "<body text>"}.
func Parse(contentType string, body []byte) any {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mt {
	case "application/json":
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
		return map[string]any{RawKey: string(body)}
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return map[string]any{RawKey: string(body)}
		}
		m := make(map[string]any, len(values))
		for k := range values {
			m[k] = values.Get(k)
		}
		return m
	default:
		return map[string]any{RawKey: string(body)}
	}
}

// Properties extracts candidate listing objects from a decoded payload,
// trying shapes in priority order:
//
//  1. an object carrying a "properties" array
//  2. an object that itself looks like a listing (has a "title" field)
//  3. a bare array of objects
//  4. any other object, as a best-effort single candidate
//
// Non-object array elements are dropped. Anything else yields nil.
func Properties(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if arr, ok := t["properties"].([]any); ok {
			return objectsOf(arr)
		}
		if _, ok := t["title"]; ok {
			return []map[string]any{t}
		}
		return []map[string]any{t}
	case []any:
		return objectsOf(t)
	default:
		return nil
	}
}

// Details unwraps a detail payload. Feeds nest the object under
// "propertyDetails", or "data.propertyDetails", or send it bare.
func Details(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if d, ok := m["propertyDetails"].(map[string]any); ok {
		return d
	}
	if data, ok := m["data"].(map[string]any); ok {
		if d, ok := data["propertyDetails"].(map[string]any); ok {
			return d
		}
	}
	return m
}

// HasIdentity reports whether a candidate carries at least one of the
// fields that identify a listing. Candidates without both title and address
// are skipped by the ingest path (logged, not an error).
func HasIdentity(m map[string]any) bool {
	return Str(m, "title") != "" || Str(m, "address") != ""
}

// Incoming is a normalized listing as built from one candidate object.
// String fields are defaulted; MLS stays nil when absent so matching can
// distinguish "no key" from an empty one.
type Incoming struct {
	Title       string
	Address     string
	Type        string
	Size        string
	Price       string
	ImageURL    string
	Description string
	Featured    bool
	MLS         *string
	ReceivedAt  time.Time
}

// MatchKind identifies which field an upsert should match on.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchMLS
	MatchAddress
)

// MatchKey selects the dedup key for this listing: MLS when present,
// otherwise address, otherwise none (unconditional insert).
func (in Incoming) MatchKey() (MatchKind, string) {
	if in.MLS != nil && *in.MLS != "" {
		return MatchMLS, *in.MLS
	}
	if in.Address != "" {
		return MatchAddress, in.Address
	}
	return MatchNone, ""
}

// Normalize builds an Incoming from one candidate object, applying the
// documented defaults: title falls back to "Untitled Property", type to
// "Other", featured to true when absent, and the received timestamp to now.
func Normalize(m map[string]any, now time.Time) Incoming {
	in := Incoming{
		Title:       firstStr(m, DefaultTitle, "title"),
		Address:     Str(m, "address"),
		Type:        firstStr(m, DefaultType, "type"),
		Size:        Str(m, "size"),
		Price:       Str(m, "price"),
		ImageURL:    Str(m, "image", "imageUrl", "image_url"),
		Description: Str(m, "description"),
		Featured:    boolOr(m, "featured", true),
		ReceivedAt:  now,
	}
	if mls := Str(m, "mls"); mls != "" {
		in.MLS = &mls
	}
	return in
}

// Str returns the first non-empty value among keys, coerced to a string.
// JSON numbers and booleans stringify; nil and missing keys yield "".
func Str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := coerce(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// StrPtr is Str for nullable columns: absent values become nil, not "".
func StrPtr(m map[string]any, keys ...string) *string {
	if s := Str(m, keys...); s != "" {
		return &s
	}
	return nil
}

func firstStr(m map[string]any, def string, keys ...string) string {
	if s := Str(m, keys...); s != "" {
		return s
	}
	return def
}

// boolOr reads a boolean field tolerating the string forms produced by
// form-encoded posts ("true", "1", ...). Absent or unrecognized values
// yield def.
func boolOr(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return def
	case float64:
		return t != 0
	default:
		return def
	}
}

func coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers arrive as float64; print integers without a mantissa.
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func objectsOf(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

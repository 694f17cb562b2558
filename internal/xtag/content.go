// Package xtag models the raw change-notification messages emitted by the
// NOMIS database trigger layer. An Xtag pairs a short trigger code with a
// loosely-typed bag of string fields; all typing is applied lazily by the
// transformer via the accessors on Content.
package xtag

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Content is an immutable mapping from trigger field name (lower snake case,
// conventionally prefixed "p_") to string value. Absent keys and
// present-but-null values are indistinguishable: both read as no value.
// Lookups never fail for unknown keys.
type Content struct {
	fields map[string]string
}

// NewContent builds a Content from the given field map. Construction is a
// pure projection; no validation is performed.
func NewContent(fields map[string]string) Content {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Content{fields: copied}
}

// ContentFromJSON projects a JSON object of string-or-null values into a
// Content. JSON nulls and non-string values read as absent. Non-object
// bodies yield an empty Content and an error for the caller to log.
func ContentFromJSON(body []byte) (Content, error) {
	var raw map[string]*string
	if err := json.Unmarshal(body, &raw); err != nil {
		return Content{fields: map[string]string{}}, fmt.Errorf("decoding xtag body: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if v != nil {
			fields[k] = *v
		}
	}
	return Content{fields: fields}, nil
}

// GetString returns the raw string value for name, or nil if absent.
func (c Content) GetString(name string) *string {
	if v, ok := c.fields[name]; ok {
		return &v
	}
	return nil
}

// GetLong parses the named field as a decimal int64. Absent or unparsable
// values return nil.
func (c Content) GetLong(name string) *int64 {
	v, ok := c.fields[name]
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// MustGetLong parses the named field as a decimal int64 and panics if it is
// absent or unparsable. Used only where the trigger schema guarantees the
// field; a failure here is a mapping defect that must surface, not degrade.
func (c Content) MustGetLong(name string) int64 {
	n := c.GetLong(name)
	if n == nil {
		panic(fmt.Sprintf("xtag: required numeric field %q absent or invalid", name))
	}
	return *n
}

// GetBool interprets the named field as a NOMIS flag: "Y" is true, anything
// else (including absent) is false.
func (c Content) GetBool(name string) bool {
	return c.fields[name] == "Y"
}

// GetDate parses the named field as a date via the accepted pattern chain.
// Absent or unparsable values return nil.
func (c Content) GetDate(name string) *time.Time {
	v, ok := c.fields[name]
	if !ok {
		return nil
	}
	return ParseDate(v)
}

// GetTime parses the named field as a time-of-day. Absent or unparsable
// values return nil.
func (c Content) GetTime(name string) *time.Time {
	v, ok := c.fields[name]
	if !ok {
		return nil
	}
	return ParseTime(v)
}

// GetAuditTimestamp parses the named field against the fixed audit layout,
// independently of the date fallback chain. Absent or unparsable values
// return nil.
func (c Content) GetAuditTimestamp(name string) *time.Time {
	v, ok := c.fields[name]
	if !ok {
		return nil
	}
	return ParseAuditTimestamp(v)
}

// GetDateTime combines a date field and a time field into one timestamp.
// A missing or unparsable time defaults to midnight; a missing or
// unparsable date makes the whole result nil.
func (c Content) GetDateTime(dateName, timeName string) *time.Time {
	date := c.GetDate(dateName)
	if date == nil {
		return nil
	}
	return CombineDateTime(date, c.GetTime(timeName))
}

// Len reports the number of present fields. Used only for logging.
func (c Content) Len() int {
	return len(c.fields)
}

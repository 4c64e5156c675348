// internal/models/availability.go
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownSlotCount is what a slot without a count contributes to a location's total.
const UnknownSlotCount = 100

// LocationAvailability is one location's entry in an availability snapshot.
type LocationAvailability struct {
	LocationID string     `json:"location"`
	Times      []TimeSlot `json:"times"`
}

// TimeSlot is a single bookable time. Slots is nil when the upstream did not
// report a count.
type TimeSlot struct {
	Slots *int `json:"slots"`
}

// Known reports whether the slot carries a count.
func (t TimeSlot) Known() bool {
	return t.Slots != nil
}

// UnmarshalJSON accepts a number, a numeric string or null for "slots".
// A missing field is treated like null. Strings that do not start with a
// number count as zero.
func (t *TimeSlot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Slots json.RawMessage `json:"slots"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Slots = nil
	v := bytes.TrimSpace(raw.Slots)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}

	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		n := leadingInt(s)
		t.Slots = &n
		return nil
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return err
	}
	n := int(f)
	t.Slots = &n
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

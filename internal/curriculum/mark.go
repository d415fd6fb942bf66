package curriculum

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Mark is a single raw sub-score. Anything that is not a finite number
// decodes to 0 instead of failing.
type Mark float64

func (m *Mark) UnmarshalJSON(data []byte) error {
	*m = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*m = Mark(finiteOrZero(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		*m = Mark(finiteOrZero(f))
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CourseInput holds the raw sub-scores supplied for one course, keyed by
// field name. Type is the variant discriminator for courses that have one.
// A CourseInput decoded from JSON marshals back to the document it was
// decoded from, so stored snapshots keep marks as the user entered them.
type CourseInput struct {
	Type  string
	Marks map[string]Mark

	raw json.RawMessage
}

// Value returns the sub-score for key, or 0 when it was not supplied.
func (c CourseInput) Value(key string) float64 {
	return float64(c.Marks[key])
}

func (c *CourseInput) UnmarshalJSON(data []byte) error {
	c.Type = ""
	c.Marks = make(map[string]Mark)
	c.raw = bytes.Clone(bytes.TrimSpace(data))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object: treated like an absent course.
		return nil
	}

	for key, raw := range fields {
		if key == variantKey {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				c.Type = s
			}
			continue
		}
		var m Mark
		_ = m.UnmarshalJSON(raw)
		c.Marks[key] = m
	}
	return nil
}

func (c CourseInput) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	out := make(map[string]any, len(c.Marks)+1)
	for k, v := range c.Marks {
		out[k] = float64(v)
	}
	if c.Type != "" {
		out[variantKey] = c.Type
	}
	return json.Marshal(out)
}

// Input is the full set of course inputs keyed by input key (ma101, humanities, ...).
// Courses that are absent score as if every field were 0.
type Input map[string]CourseInput

const variantKey = "type"

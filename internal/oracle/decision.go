// File: internal/oracle/decision.go
package oracle

import (
	"bytes"
	stdjson "encoding/json"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decision is the oracle's structured output for one iteration: one tool
// plus the updated story-memory. Numeric fields tolerate the common model
// quirks (numbers as strings, numbers wrapped in one-element lists) and the
// memory field arrives as either a list of lines or a single string.
type Decision struct {
	Tool      string    `json:"tool"`
	Reasoning string    `json:"reasoning"`
	Memory    FlexLines `json:"memory"`
	Text      string    `json:"text"`

	X  FlexFloat `json:"x"`
	Y  FlexFloat `json:"y"`
	X1 FlexFloat `json:"x1"`
	Y1 FlexFloat `json:"y1"`
	X2 FlexFloat `json:"x2"`
	Y2 FlexFloat `json:"y2"`
	DX FlexFloat `json:"dx"`
	DY FlexFloat `json:"dy"`
}

// FlexFloat is a float that may be absent, null, a bare number, a numeric
// string, or a one-element list. Anything undecodable is simply left unset;
// command validation rejects it downstream.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		return nil
	}
	if b[0] == '[' {
		var list []stdjson.Number
		if err := json.Unmarshal(b, &list); err != nil || len(list) == 0 {
			return nil
		}
		if v, err := list[0].Float64(); err == nil {
			f.Value, f.Set = v, true
		}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.Value, f.Set = v, true
		}
		return nil
	}
	var n stdjson.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	if v, err := n.Float64(); err == nil {
		f.Value, f.Set = v, true
	}
	return nil
}

// Or returns the value or a default when unset.
func (f FlexFloat) Or(def float64) float64 {
	if !f.Set {
		return def
	}
	return f.Value
}

// FlexLines is a string list that also accepts a single string payload.
type FlexLines []string

func (l *FlexLines) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		var items []any
		if err := json.Unmarshal(b, &items); err != nil {
			return nil
		}
		for _, it := range items {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				*l = append(*l, strings.TrimSpace(s))
			}
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if s = strings.TrimSpace(s); s != "" {
		*l = []string{s}
	}
	return nil
}

// Story joins the memory lines into overlay text.
func (l FlexLines) Story() string {
	return strings.Join(l, "\n")
}

var fencedBlock = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\{.*?\\})\\s*\x60\x60\x60")

// ExtractDecision pulls the first JSON object out of a raw model response,
// tolerating fenced code blocks and conversational framing. A response with
// no decodable object yields (nil, false), meaning no command this iteration;
// never an error.
func ExtractDecision(raw string) (*Decision, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	candidate := raw
	if m := fencedBlock.FindStringSubmatch(raw); len(m) > 1 {
		candidate = m[1]
	} else {
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first == -1 || last <= first {
			return nil, false
		}
		candidate = raw[first : last+1]
	}

	var d Decision
	if err := json.Unmarshal([]byte(candidate), &d); err != nil {
		return nil, false
	}
	return &d, true
}

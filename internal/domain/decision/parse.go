package decision

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	indexField     = "action_index"
	reasoningField = "reasoning"

	// maxFragmentScan bounds the brace scan on very long responses.
	maxFragmentScan = 64 << 10
)

var (
	cuePattern = regexp.MustCompile(
		`(?i)(?:\baction[\s_-]*index|\bchoose\s+action|\bindex\s*:)["']?\s*(?:is|of|=|:|#)?\s*["']?\s*(-?\d+(?:\.\d+)?)`)
	numberPattern = regexp.MustCompile(`-?\b\d+(?:\.\d+)?\b`)
)

// parseRecord parses text as a JSON object carrying an action_index.
func parseRecord(text string) (candidate, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return candidate{}, false
	}
	var rec map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return candidate{}, false
	}
	raw, ok := rec[indexField]
	if !ok {
		return candidate{}, false
	}
	value, ok := numericValue(raw)
	if !ok {
		return candidate{}, false
	}

	c := candidate{value: value, reasoning: ReasonNoneProvided}
	if r, ok := rec[reasoningField]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err == nil && strings.TrimSpace(s) != "" {
			c.reasoning = strings.TrimSpace(s)
		}
	}
	return c, true
}

// numericValue accepts a JSON number or a string holding one.
func numericValue(raw json.RawMessage) (float64, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// fragments returns every brace-balanced substring, ordered by opening brace.
// Braces inside JSON strings do not count towards the balance.
func fragments(text string) []string {
	if len(text) > maxFragmentScan {
		text = text[:maxFragmentScan]
	}
	var out []string
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			frag := text[start : end+1]
			if strings.Contains(frag, indexField) {
				out = append(out, frag)
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

func matchBrace(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseEmbedded accepts the first fragment that parses as a record.
func parseEmbedded(text string) (candidate, bool) {
	for _, frag := range fragments(text) {
		if c, ok := parseRecord(frag); ok {
			return c, true
		}
	}
	return candidate{}, false
}

// parseCue finds the earliest cue phrase followed by a number.
func parseCue(text string, maxReasoning int) (candidate, bool) {
	m := cuePattern.FindStringSubmatch(text)
	if m == nil {
		return candidate{}, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return candidate{}, false
	}
	return candidate{value: value, reasoning: excerpt(text, maxReasoning)}, true
}

// parseBareNumber takes the first number anywhere in the text.
func parseBareNumber(text string, maxReasoning int) (candidate, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return candidate{}, false
	}
	value, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return candidate{}, false
	}
	return candidate{value: value, reasoning: excerpt(text, maxReasoning)}, true
}

// inBounds reports whether v is an integer in [0, n).
func inBounds(v float64, n int) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v < 0 || v >= float64(n) {
		return 0, false
	}
	return int(v), true
}

func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

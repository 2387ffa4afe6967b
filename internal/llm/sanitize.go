package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/constants"
)

// DefaultPriority is used when the model omits a priority or gives one we cannot read.
const DefaultPriority = 3

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

// SanitizeSyllabusJSON is the lenient pass run after strict validation fails:
// - drops unknown keys at every level
// - coerces priority and weights from strings ("2", "20%")
// - clamps priority into 1..5 and maps eventType synonyms onto the enum
// - drops todos with no title or with a date we cannot read
// It does not invent a todos array; a document without one stays invalid.
func SanitizeSyllabusJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	allowed := map[string]struct{}{
		"courseCode": {}, "courseName": {}, "instructor": {}, "todos": {}, "gradingPolicy": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	for _, k := range []string{"courseCode", "courseName", "instructor"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			m[k] = strings.TrimSpace(t)
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case []any:
			// instructors sometimes come back as a list; keep the first name
			if s, ok := firstString(t); ok {
				m[k] = s
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	if v, ok := m["todos"]; ok {
		switch t := v.(type) {
		case []any:
			todos := make([]any, 0, len(t))
			for i, item := range t {
				todo, why := sanitizeTodo(item)
				if todo == nil {
					dropped = append(dropped, fmt.Sprintf("todos[%d](%s)", i, why))
					continue
				}
				todos = append(todos, todo)
			}
			m["todos"] = todos
		case nil:
			m["todos"] = []any{}
		default:
			// not something we can repair
		}
	}

	if v, ok := m["gradingPolicy"]; ok {
		policy, bad := sanitizeGradingPolicy(v)
		m["gradingPolicy"] = policy
		for _, k := range bad {
			dropped = append(dropped, "gradingPolicy."+k)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeTodo(item any) (map[string]any, string) {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil, "type"
	}

	title, _ := obj["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, "title"
	}

	dateStr, _ := obj["date"].(string)
	date, ok := normalizeDate(dateStr)
	if !ok {
		return nil, "date"
	}

	eventType := constants.Other
	if s, ok := obj["eventType"].(string); ok {
		eventType, _ = constants.CanonicalizeEventType(s)
	}

	return map[string]any{
		"title":     title,
		"date":      date,
		"eventType": string(eventType),
		"priority":  coercePriority(obj["priority"]),
	}, ""
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	// RFC 3339 timestamps: keep the calendar date
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return s[:10], true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func coercePriority(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return DefaultPriority
		}
		f = p
	default:
		return DefaultPriority
	}
	p := int(math.Round(f))
	if p < constants.HighestPriority {
		return constants.HighestPriority
	}
	if p > constants.LowestPriority {
		return constants.LowestPriority
	}
	return p
}

// sanitizeGradingPolicy accepts {"Homework": 30} and [{"category": "Homework", "weight": "30%"}].
func sanitizeGradingPolicy(v any) (map[string]any, []string) {
	out := map[string]any{}
	var bad []string
	switch t := v.(type) {
	case map[string]any:
		for k, raw := range t {
			if w, ok := coerceWeight(raw); ok {
				out[strings.TrimSpace(k)] = w
			} else {
				bad = append(bad, k)
			}
		}
	case []any:
		for i, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				bad = append(bad, strconv.Itoa(i))
				continue
			}
			name := firstNonEmpty(obj, "category", "name", "component")
			w, ok := coerceWeight(firstPresent(obj, "weight", "percent", "percentage"))
			if name == "" || !ok {
				bad = append(bad, strconv.Itoa(i))
				continue
			}
			out[name] = w
		}
	}
	return out, bad
}

func coerceWeight(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t >= 0
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func firstString(list []any) (string, bool) {
	for _, v := range list {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func firstNonEmpty(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

package llm

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	reWholeFence = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\n?(.*?)\n?[ \t]*```$")
	reInnerFence = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\n(.*?)\n[ \t]*```")
)

// StripCodeFence removes a markdown code fence (```json ... ```) around the payload.
// Text without a fence is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := reWholeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reInnerFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ResponseParser turns model content into SyllabusFields: strict schema first,
// then (when lenient) a sanitize pass and a second validation.
type ResponseParser struct {
	schema  *jsonschema.Schema
	lenient bool
	logger  *slog.Logger
}

func NewResponseParser(lenient bool, logger *slog.Logger) *ResponseParser {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildSyllabusJSONSchema())
	if err != nil {
		// the schema is static; a failure here is a programming error
		panic(err)
	}
	return &ResponseParser{schema: schema, lenient: lenient, logger: logger}
}

// Parse returns nil when the content cannot be turned into a valid document.
// The returned bytes are the JSON that was finally accepted (or the stripped content).
func (p *ResponseParser) Parse(content string) (*SyllabusFields, []byte) {
	body := StripCodeFence(content)
	raw := []byte(body)
	if !json.Valid(raw) {
		// tolerate prose around a bare object
		if i, j := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); i >= 0 && j > i && json.Valid([]byte(body[i:j+1])) {
			raw = []byte(body[i : j+1])
		} else {
			p.logger.Warn("llm.parse.invalid_json", "content_len", len(content))
			return nil, raw
		}
	}

	if err := ValidateJSON(p.schema, raw); err != nil {
		if !p.lenient {
			p.logger.Warn("llm.parse.schema_validation_failed", "error", err)
			return nil, raw
		}
		cleaned, dropped, sErr := SanitizeSyllabusJSON(raw, p.logger)
		if sErr != nil {
			p.logger.Warn("llm.parse.sanitize_failed", "error", sErr)
			return nil, raw
		}
		if vErr := ValidateJSON(p.schema, cleaned); vErr != nil {
			p.logger.Warn("llm.parse.schema_validation_failed", "error", vErr, "dropped", dropped)
			return nil, cleaned
		}
		p.logger.Info("llm.parse.lenient_sanitize_applied", "dropped", dropped)
		raw = cleaned
	}

	var out SyllabusFields
	if err := json.Unmarshal(raw, &out); err != nil {
		p.logger.Warn("llm.parse.unmarshal_failed", "error", err)
		return nil, raw
	}
	if out.Todos == nil {
		out.Todos = []Todo{}
	}
	return &out, raw
}

var defaultParser = NewResponseParser(true, nil)

// ParseModelResponse parses model content with the lenient policy. Malformed
// content yields nil, never an error.
func ParseModelResponse(content string) *SyllabusFields {
	out, _ := defaultParser.Parse(content)
	return out
}

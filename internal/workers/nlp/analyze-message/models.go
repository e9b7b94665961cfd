// internal/workers/nlp/analyze-message/models.go
package analyzemessage

import (
	"fmt"

	"helpro-nlp/internal/nlp"
)

type Input struct {
	Message   string  `json:"message"`
	Locale    *string `json:"locale"`
	RequestID *string `json:"request_id"`
}

type Output = nlp.AnalysisResult

// inputSchema describes the request body. Unknown properties are ignored.
func inputSchema(maxLength int) string {
	return fmt.Sprintf(`{
  "type": "object",
  "properties": {
    "message":    {"type": "string", "minLength": 1, "maxLength": %d},
    "locale":     {"type": ["string", "null"], "enum": ["en", "sv", "de", "es", "fa", null]},
    "request_id": {"type": ["string", "null"]}
  },
  "required": ["message"]
}`, maxLength)
}

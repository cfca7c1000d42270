package storage

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema is the persisted format: a bare JSON array of todo objects,
// no envelope and no embedded counter. Only id and text are strictly
// required so that documents written by older versions still load; unknown
// extra fields are tolerated for the same reason.
const documentSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "text": {"type": "string", "minLength": 1},
      "done": {"type": "boolean"},
      "priority": {"enum": ["low", "medium", "high"]},
      "tags": {"type": "array", "items": {"type": "string"}},
      "due_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
      "created_at": {"type": "string"},
      "updated_at": {"type": "string"}
    }
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString("todo-document.json", documentSchema)

// validateDocument parses data and checks it against the document schema.
// Parse and validation failures are both corruption from the caller's point
// of view, but keep their underlying cause in the error chain.
func validateDocument(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if err := compiledDocumentSchema.Validate(doc); err != nil {
		return fmt.Errorf("validating document schema: %w", err)
	}
	return nil
}

package remote

import (
	"github.com/invopop/jsonschema"
)

// Schemas describes the payloads of the remote contract as JSON Schema,
// keyed by payload name.
func Schemas() map[string]*jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	return map[string]*jsonschema.Schema{
		"create_request":      r.Reflect(&CreateRequest{}),
		"update_request":      r.Reflect(&UpdateRequest{}),
		"collection_response": r.Reflect(&CollectionResponse{}),
		"stored_entry":        r.Reflect(&StoredEntry{}),
		"display":             r.Reflect(&Display{}),
	}
}

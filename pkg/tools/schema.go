package tools

import (
	"github.com/invopop/jsonschema"
)

// GenerateSchema derives a JSON Schema from a Go struct type. Schemas are
// inlined (no $ref) so backends and validators see the full parameter shape.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

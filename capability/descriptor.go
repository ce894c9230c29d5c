package capability

import (
	"github.com/hupe1980/schoolmate/internal/util"
	"github.com/hupe1980/schoolmate/model"
)

// SubjectParam is the argument name carrying the subject (student) identifier.
const SubjectParam = "subject_id"

// Parameter describes one argument of a capability.
type Parameter struct {
	Name        string
	Type        string // JSON schema type: string, integer, number, boolean, array, object
	Required    bool
	Description string
}

// Descriptor describes an invocable capability.
type Descriptor struct {
	Name        string
	Description string
	Parameters  []Parameter // ordered
}

// RequiresSubject reports whether the capability cannot run without a subject id.
func (d Descriptor) RequiresSubject() bool {
	for _, p := range d.Parameters {
		if p.Name == SubjectParam {
			return p.Required
		}
	}
	return false
}

// Schema renders the parameter list as a JSON schema object.
func (d Descriptor) Schema() map[string]any {
	properties := make(map[string]any, len(d.Parameters))
	required := make([]string, 0)

	for _, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ToolDefinition renders the descriptor in the shape the model adapters expect.
func (d Descriptor) ToolDefinition() model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Schema(),
		},
	}
}

// ValidationError is returned by ValidateArguments.
type ValidationError = util.ValidationError

// ValidateArguments checks required presence and JSON types of args.
func ValidateArguments(d Descriptor, args map[string]any) error {
	return util.ValidateParameters(args, d.Schema())
}

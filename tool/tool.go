package tool

import (
	"context"
	"fmt"
	"reflect"

	"github.com/casualjim/architext/pkg/jsonx"
	"github.com/casualjim/architext/pkg/reflectx"
	"github.com/casualjim/architext/pkg/stdx"
	"github.com/casualjim/architext/types"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a tool that can be advertised to a model.
//
// The parameter schema is reflected from Function when it is set. When the
// tool is only described, never executed locally, Schema can carry the
// parameter schema directly and Function stays nil.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
	Schema      *jsonschema.Schema
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema returns the tool name and the JSON schema of its parameters.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return functionDefinitionJSON(&functionReflector, td)
}

// Spec returns the function-calling description of the tool as a dynamic JSON
// object: {"type":"function","function":{"name":...,"description":...,"parameters":{...}}}.
func (td Definition) Spec() (map[string]any, error) {
	name, schema := td.ToNameAndSchema()
	params, err := jsonx.ToDynamicJSON(schema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: convert schema: %w", name, err)
	}
	fn := map[string]any{
		"name":       name,
		"parameters": params,
	}
	if td.Description != "" {
		fn["description"] = td.Description
	}
	return map[string]any{
		"type":     "function",
		"function": fn,
	}, nil
}

func functionDefinitionJSON(reflector *jsonschema.Reflector, f Definition) (string, *jsonschema.Schema) {
	name := f.Name
	if name == "" {
		name = reflectx.FunctionName(f.Function)
	}

	if f.Schema != nil {
		return name, f.Schema
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	if !reflectx.IsFunction(f.Function) {
		return name, schema
	}

	typ := reflect.TypeOf(f.Function)
	var required []string
	argIdx := 0
	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		// injected by the caller at execution time, not supplied by the model
		if reflectx.IsRefinedType[types.ContextVars](paramType) || reflectx.IsRefinedType[context.Context](paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", argIdx)
		if p, ok := f.Parameters[paramName]; ok {
			paramName = p
		}
		argIdx++

		propSchema := reflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		required = append(required, paramName)
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

// Option is a type alias for a function that modifies the configuration of a tool Definition.
type Option = opts.Option[Definition]

// Must is like New but panics when the definition cannot be built.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New creates a Definition from the provided function and options.
// The name defaults to the function name.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Describe creates a Definition for a tool that is only advertised, with an explicit parameter schema.
// A nil schema advertises a tool without parameters.
func Describe(name, description string, schema *jsonschema.Schema) Definition {
	return Definition{Name: name, Description: description, Schema: schema}
}

// Name sets the tool name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the human readable description sent to the model.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the function parameters in order. Parameters that are
// injected (context.Context, types.ContextVars) are not counted.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}

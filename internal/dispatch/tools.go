package dispatch

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolDef describes one callable tool: its input schema (validated before
// dispatch) and a short description surfaced by the listing endpoint.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any

	compiled *jsonschema.Schema
}

func userProp() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Caller identity used to resolve the permission role",
	}
}

func tableProp() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Table name (validated identifier)",
	}
}

func conditionsProp(desc string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"description":          desc,
		"additionalProperties": map[string]any{},
	}
}

// toolDefs declares every exposed tool. Order here is the order returned by
// the listing endpoint.
func toolDefs() []ToolDef {
	return []ToolDef{
		{
			Name:        "execute_safe_query",
			Description: "Execute a raw SQL statement after pattern scanning and role checks",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Single SQL statement; values should use placeholders with params",
					},
					"params": map[string]any{
						"type":        "array",
						"description": "Positional parameter values bound to placeholders",
						"items":       map[string]any{},
					},
					"user": userProp(),
				},
				"required": []any{"query", "user"},
			},
		},
		{
			Name:        "select_table_data",
			Description: "Select rows from a table with equality conditions",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table": tableProp(),
					"columns": map[string]any{
						"type":        "array",
						"description": "Columns to select; omit for all",
						"items":       map[string]any{"type": "string"},
					},
					"where_conditions": conditionsProp("Column = value conditions, ANDed"),
					"order_by": map[string]any{
						"type":        "string",
						"description": "Column to order by (validated identifier)",
					},
					"limit":  map[string]any{"type": "integer", "minimum": 0},
					"offset": map[string]any{"type": "integer", "minimum": 0},
					"user":   userProp(),
				},
				"required": []any{"table", "user"},
			},
		},
		{
			Name:        "insert_table_data",
			Description: "Insert one row or a list of rows into a table",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table": tableProp(),
					"data": map[string]any{
						"description": "Row object or array of row objects",
						"oneOf": []any{
							map[string]any{"type": "object"},
							map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "object"},
							},
						},
					},
					"user": userProp(),
				},
				"required": []any{"table", "data", "user"},
			},
		},
		{
			Name:        "update_table_data",
			Description: "Update rows matching equality conditions",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table":            tableProp(),
					"data":             conditionsProp("Column = value assignments"),
					"where_conditions": conditionsProp("Column = value conditions, ANDed; required"),
					"user":             userProp(),
				},
				"required": []any{"table", "data", "where_conditions", "user"},
			},
		},
		{
			Name:        "delete_table_data",
			Description: "Delete rows matching equality conditions",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table":            tableProp(),
					"where_conditions": conditionsProp("Column = value conditions, ANDed; required"),
					"user":             userProp(),
				},
				"required": []any{"table", "where_conditions", "user"},
			},
		},
		{
			Name:        "discover_database_schema",
			Description: "List every table and column in the database",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user": userProp(),
				},
				"required": []any{"user"},
			},
		},
		{
			Name:        "get_table_structure",
			Description: "Describe the columns of one table",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table": tableProp(),
					"user":  userProp(),
				},
				"required": []any{"table", "user"},
			},
		},
		{
			Name:        "create_table_secure",
			Description: "Create a table from validated column definitions (admin only)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table": tableProp(),
					"columns": map[string]any{
						"type":                 "object",
						"description":          "column name to type declaration, types checked against an allow-list",
						"additionalProperties": map[string]any{"type": "string"},
					},
					"user": userProp(),
				},
				"required": []any{"table", "columns", "user"},
			},
		},
		{
			Name:        "get_database_statistics",
			Description: "Aggregate table count and storage statistics",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user": userProp(),
				},
				"required": []any{"user"},
			},
		},
		{
			Name:        "check_user_permissions",
			Description: "Report the resolved role and capabilities for an identity",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user": userProp(),
				},
				"required": []any{"user"},
			},
		},
	}
}

// compileTools compiles every tool's input schema once at startup.
func compileTools() (map[string]*ToolDef, []ToolDef, error) {
	defs := toolDefs()
	byName := make(map[string]*ToolDef, len(defs))
	for i := range defs {
		def := &defs[i]
		c := jsonschema.NewCompiler()
		resource := def.Name + ".json"
		if err := c.AddResource(resource, toJSONValue(def.InputSchema)); err != nil {
			return nil, nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		sch, err := c.Compile(resource)
		if err != nil {
			return nil, nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		def.compiled = sch
		byName[def.Name] = def
	}
	return byName, defs, nil
}

// toJSONValue normalizes a schema literal to plain JSON types for the
// compiler (maps, slices, strings, float64 numbers, bools).
func toJSONValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = toJSONValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = toJSONValue(val)
		}
		return out
	case int:
		return float64(x)
	default:
		return x
	}
}

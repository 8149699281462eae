// Package template resolves {{node.field}} placeholders in node
// configuration against the accumulated context of prior node outputs.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hookline/hookline/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.$-]+)\s*\}\}`)

// NeedsResolution checks if a string contains placeholders.
func NeedsResolution(input string) bool {
	return placeholderPattern.MatchString(input)
}

// ResolveConfig returns a copy of config with every placeholder in its string
// values (recursively, through nested maps and slices) resolved against the
// execution context.
func ResolveConfig(config map[string]any, execCtx *models.ExecutionContext) (map[string]any, error) {
	resolved, err := resolveValue(config, execCtx)
	if err != nil {
		return nil, err
	}

	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("resolved config is not an object")
	}

	return out, nil
}

// ResolveString resolves placeholders inside one string. A string that is
// exactly one placeholder yields the referenced value with its original type;
// anything else interpolates into a string.
func ResolveString(input string, execCtx *models.ExecutionContext) (any, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input, nil
	}

	data := lookupData(execCtx)

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(input) {
		path := input[matches[0][2]:matches[0][3]]

		return lookupPath(data, path)
	}

	var (
		b    strings.Builder
		last int
	)

	for _, m := range matches {
		b.WriteString(input[last:m[0]])

		value, err := lookupPath(data, input[m[2]:m[3]])
		if err != nil {
			return nil, err
		}

		b.WriteString(stringify(value))

		last = m[1]
	}

	b.WriteString(input[last:])

	return b.String(), nil
}

func resolveValue(value any, execCtx *models.ExecutionContext) (any, error) {
	switch v := value.(type) {
	case string:
		return ResolveString(v, execCtx)
	case map[string]any:
		out := make(map[string]any, len(v))

		for key, item := range v {
			resolved, err := resolveValue(item, execCtx)
			if err != nil {
				return nil, err
			}

			out[key] = resolved
		}

		return out, nil
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			resolved, err := resolveValue(item, execCtx)
			if err != nil {
				return nil, err
			}

			out[i] = resolved
		}

		return out, nil
	default:
		return value, nil
	}
}

func lookupData(execCtx *models.ExecutionContext) map[string]any {
	data := make(map[string]any, len(execCtx.NodeOutputs)+2)

	for id, outputs := range execCtx.NodeOutputs {
		data[id] = outputs
	}

	if execCtx.TriggerData != nil {
		data["trigger"] = execCtx.TriggerData
	}

	if execCtx.Globals != nil {
		data["globals"] = execCtx.Globals
	}

	return data
}

func lookupPath(data map[string]any, path string) (any, error) {
	segments := strings.Split(path, ".")

	var current any = data

	for _, segment := range segments {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot resolve '%s': '%s' is not an object", path, segment)
		}

		current, ok = object[segment]
		if !ok {
			return nil, fmt.Errorf("cannot resolve '%s': no value for '%s'", path, segment)
		}
	}

	return current, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(raw)
	}
}

package document

import "regexp"

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_\-]*)\}`)

// ReplaceVars returns a copy of value in which every "${name}" reference
// inside a string is replaced by vars[name]. References to unknown
// variables are kept.
func ReplaceVars(value any, vars map[string]string) any {
	switch v := value.(type) {
	case string:
		return replaceString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = ReplaceVars(item, vars)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ReplaceVars(item, vars)
		}
		return out
	default:
		return value
	}
}

func replaceString(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := varPattern.FindStringSubmatch(ref)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return ref
	})
}

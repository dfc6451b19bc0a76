package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// stringArg returns the first of keys present in args as a string.
// Numbers are formatted; anything else is ignored.
func stringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := args[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// stringListArg returns a list argument. Models emit lists as JSON arrays,
// as a single string or as a comma separated string; all three are accepted.
func stringListArg(args map[string]any, keys ...string) []string {
	for _, key := range keys {
		var out []string
		switch v := args[key].(type) {
		case []string:
			out = splitList(v...)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if item != nil {
					items = append(items, fmt.Sprint(item))
				}
			}
			out = splitList(items...)
		case string:
			out = splitList(v)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func splitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.FieldsFuncSeq(v, func(r rune) bool { return r == ',' || r == ';' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

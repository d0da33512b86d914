package querysql

import (
	"fmt"
	"sort"
	"strings"
)

// DisplayString substitutes bound values back into the statement text for
// human inspection: logs, error reports, the CLI compile command.
//
// The result is NOT safe to execute - values are rendered with naive
// quoting and no injection guarantee. Always hand the engine Text and
// Params, never this.
func (s *Statement) DisplayString() string {
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	// Longest first so param1 never clobbers the prefix of param10.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	text := s.Text
	for _, name := range names {
		text = strings.ReplaceAll(text, ":"+name, displayValue(s.Params[name]))
	}
	return text
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "\\'") + "'"
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

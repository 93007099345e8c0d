package snapshot

import (
	"strconv"
	"strings"
)

// RenderLogMessage substitutes each $N placeholder in template with
// values[N], or with nothing when N is out of range. A placeholder preceded
// by another $ is left alone, and each $$ in the template then becomes a
// single $. Substituted values are never scanned for placeholders or escapes.
func RenderLogMessage(template string, values []string) string {
	var out strings.Builder
	literalStart := 0
	flush := func(end int) {
		out.WriteString(strings.ReplaceAll(template[literalStart:end], "$$", "$"))
	}
	for i := 0; i < len(template); i++ {
		if template[i] != '$' || (i > 0 && template[i-1] == '$') {
			continue
		}
		end := i + 1
		for end < len(template) && template[end] >= '0' && template[end] <= '9' {
			end++
		}
		if end == i+1 {
			continue
		}
		flush(i)
		if index, err := strconv.Atoi(template[i+1 : end]); err == nil && index < len(values) {
			out.WriteString(values[index])
		}
		literalStart = end
		i = end - 1
	}
	flush(len(template))
	return out.String()
}

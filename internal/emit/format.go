package emit

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// Format replaces each {expr} in line with the value of expr evaluated against
// ctx. The expression language is expr-lang: names, field and index access,
// arithmetic and function calls all work. A trailing ":%verb" formats the value
// with fmt (e.g. {n:%04d}); otherwise fmt.Sprint is used. {{ and }} produce
// literal braces.
func Format(line string, ctx map[string]any) (string, error) {
	if ctx == nil {
		ctx = map[string]any{}
	}

	var out strings.Builder
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '{' && i+1 < len(line) && line[i+1] == '{':
			out.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(line) && line[i+1] == '}':
			out.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(line[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("EmitFmt: unclosed '{' at offset %d", i)
			}
			s, err := evalField(line[i+1:i+1+end], ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			i += end + 2
		case c == '}':
			return "", fmt.Errorf("EmitFmt: single '}' at offset %d", i)
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

func evalField(field string, ctx map[string]any) (string, error) {
	src, verb := field, ""
	if k := strings.LastIndex(field, ":%"); k >= 0 {
		src, verb = field[:k], field[k+1:]
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return "", fmt.Errorf("EmitFmt: empty placeholder {%s}", field)
	}

	program, err := expr.Compile(src, expr.Env(ctx))
	if err != nil {
		return "", fmt.Errorf("EmitFmt: compile {%s}: %w", src, err)
	}
	v, err := expr.Run(program, ctx)
	if err != nil {
		return "", fmt.Errorf("EmitFmt: eval {%s}: %w", src, err)
	}

	if verb != "" {
		return fmt.Sprintf(verb, v), nil
	}
	return fmt.Sprint(v), nil
}

package cssinline

import "strings"

// maxVarDepth bounds nested and self-referencing var() chains.
const maxVarDepth = 16

// ResolveVars substitutes every var(--name[, fallback]) in value with the
// matching entry of vars, the fallback, or leaves the reference in place when
// neither exists. Nested references and references inside fallbacks are
// resolved as well.
func ResolveVars(value string, vars map[string]string) string {
	return resolveVars(value, vars, 0)
}

func resolveVars(value string, vars map[string]string, depth int) string {
	if depth >= maxVarDepth || !strings.Contains(value, "var(") {
		return value
	}

	var b strings.Builder
	rest := value
	for {
		i := strings.Index(rest, "var(")
		if i < 0 || !isFunctionStart(rest, i) {
			if i < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:i+4])
			rest = rest[i+4:]
			continue
		}

		end := matchParen(rest, i+3)
		if end < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:i])
		name, fallback, hasFallback := splitVarArgs(rest[i+4 : end])
		switch v, ok := vars[name]; {
		case ok:
			b.WriteString(resolveVars(strings.TrimSpace(v), vars, depth+1))
		case hasFallback:
			b.WriteString(resolveVars(fallback, vars, depth+1))
		default:
			b.WriteString(rest[i : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// isFunctionStart reports whether the "var(" at s[i:] is a function token and
// not the tail of an identifier such as "somevar(".
func isFunctionStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	return !(c == '-' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitVarArgs splits the inside of var(...) at its first top-level comma.
func splitVarArgs(args string) (name, fallback string, hasFallback bool) {
	depth := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+1:]), true
			}
		}
	}
	return strings.TrimSpace(args), "", false
}

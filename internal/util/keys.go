package util

import "strings"

var paramEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// Join renders op and params as "op:p1:p2". Params are escaped so that a ':'
// inside a param can never produce the rendering of a different tuple.
func Join(op string, params []string) string {
	if len(params) == 0 {
		return op
	}
	var b strings.Builder
	b.Grow(len(op) + 8*len(params))
	b.WriteString(op)
	for _, p := range params {
		b.WriteByte(':')
		b.WriteString(paramEscaper.Replace(p))
	}
	return b.String()
}

// Prefixes returns the renderings of every leading sub-tuple of (op, params...),
// shortest first: op, op:p1, op:p1:p2.
func Prefixes(op string, params []string) []string {
	out := make([]string, 0, len(params)+1)
	for i := 0; i <= len(params); i++ {
		out = append(out, Join(op, params[:i]))
	}
	return out
}

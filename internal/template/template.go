// Package template renders a Connection Task's per-host send payload.
package template

import (
	"bytes"
	"net/netip"
)

// Placeholder is the literal substring within a send template that is
// replaced by the target's dotted-quad address.
const Placeholder = "%s"

// maxSubstitutions caps how many placeholder occurrences are rendered;
// extra occurrences beyond this are left as literal text, per spec.md
// §4.3 ("up to four occurrences").
const maxSubstitutions = 4

// Render substitutes up to four occurrences of Placeholder in tmpl with
// addr's canonical dotted-quad text. It never mutates tmpl.
func Render(tmpl []byte, addr netip.Addr) []byte {
	if len(tmpl) == 0 {
		return nil
	}
	dotted := []byte(addr.String())

	var out bytes.Buffer
	out.Grow(len(tmpl))

	remaining := tmpl
	substituted := 0
	for substituted < maxSubstitutions {
		idx := bytes.Index(remaining, []byte(Placeholder))
		if idx < 0 {
			break
		}
		out.Write(remaining[:idx])
		out.Write(dotted)
		remaining = remaining[idx+len(Placeholder):]
		substituted++
	}
	out.Write(remaining)
	return out.Bytes()
}

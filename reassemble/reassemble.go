// Package reassemble turns a byte-oriented source's raw chunks into
// complete lines, carrying any trailing partial line across calls.
package reassemble

import "strings"

// Lines splits rawChunk into completed lines, prefixing any residue left
// over from a prior call. It returns the completed lines and the new
// residue (the trailing fragment that did not end in '\n', if any).
//
// '\r\n' is treated the same as '\n': trailing '\r' is stripped from each
// completed line. An empty rawChunk returns the residue unchanged.
func Lines(rawChunk, priorResidue string) (lines []string, newResidue string) {
	if rawChunk == "" {
		return nil, priorResidue
	}

	combined := priorResidue + rawChunk
	endsInNewline := strings.HasSuffix(combined, "\n")

	parts := strings.Split(combined, "\n")
	if endsInNewline {
		// Split on a trailing '\n' leaves a final empty element; drop it.
		parts = parts[:len(parts)-1]
		newResidue = ""
	} else {
		newResidue = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	for _, p := range parts {
		lines = append(lines, strings.TrimSuffix(p, "\r"))
	}
	return lines, newResidue
}

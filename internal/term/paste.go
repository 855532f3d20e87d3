package term

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"
)

// EncodePaste prepares pasted text for the child. Text is normalized to
// NFC, line endings become carriage returns, and control characters other
// than tab are dropped so a paste cannot smuggle escape sequences. With
// bracketed set the result is wrapped in paste brackets.
func EncodePaste(text string, bracketed bool) []byte {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\r")

	var b strings.Builder
	if bracketed {
		b.WriteString(pasteStart)
	}
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		switch cluster {
		case "\n", "\r":
			b.WriteByte('\r')
			continue
		case "\t":
			b.WriteByte('\t')
			continue
		}
		if isControl(cluster) {
			continue
		}
		b.WriteString(cluster)
	}
	if bracketed {
		b.WriteString(pasteEnd)
	}
	return []byte(b.String())
}

func isControl(cluster string) bool {
	for _, r := range cluster {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return true
		}
	}
	return false
}

package highlight

import "strings"

const (
	openTag  = "<color="
	closeTag = "</color>"
)

// Segment is a run of display text in a single color. Color is empty for
// uncolored text.
type Segment struct {
	Text  string
	Color string
}

// ParseMarkup splits display markup back into colored segments. Only the tags
// produced by Markup are recognized; any other text is kept literally.
func ParseMarkup(s string) []Segment {
	var segs []Segment
	var sb strings.Builder
	color := ""

	flush := func() {
		if sb.Len() > 0 {
			segs = append(segs, Segment{Text: sb.String(), Color: color})
			sb.Reset()
		}
	}

	for i := 0; i < len(s); {
		rest := s[i:]
		if strings.HasPrefix(rest, closeTag) && color != "" {
			flush()
			color = ""
			i += len(closeTag)
			continue
		}
		if c, n := colorTag(rest); n > 0 && color == "" {
			flush()
			color = c
			i += n
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	flush()
	return segs
}

// colorTag parses "<color=#rrggbb>" at the start of s, returning the color
// and the tag length.
func colorTag(s string) (string, int) {
	const n = len(openTag) + 7 + 1
	if len(s) < n || !strings.HasPrefix(s, openTag) || s[n-1] != '>' {
		return "", 0
	}
	c := s[len(openTag) : n-1]
	if c[0] != '#' {
		return "", 0
	}
	for _, ch := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", ch) {
			return "", 0
		}
	}
	return c, n
}

// StripMarkup removes color tags, leaving the display text
func StripMarkup(s string) string {
	var sb strings.Builder
	for _, seg := range ParseMarkup(s) {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

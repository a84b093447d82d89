package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyleName is the chroma style used when none is configured
const DefaultStyleName = "monokai"

// Palette maps each token class to a "#rrggbb" display color
type Palette map[Class]string

// Color returns the color for class, or "" for unclassified text
func (p Palette) Color(class Class) string {
	if class == Plain {
		return ""
	}
	if c, ok := p[class]; ok && c != "" {
		return c
	}
	return DefaultPalette()[class]
}

// DefaultPalette returns the built-in palette
func DefaultPalette() Palette {
	return Palette{
		Keyword:         "#569cd6",
		BuiltinFunction: "#dcdcaa",
		UserFunction:    "#4ec9b0",
		StringLiteral:   "#ce9178",
		Comment:         "#6a9955",
	}
}

// tokenTypes maps our classes onto the chroma token types whose colors they borrow
var tokenTypes = map[Class]chroma.TokenType{
	Keyword:         chroma.Keyword,
	BuiltinFunction: chroma.NameBuiltin,
	UserFunction:    chroma.NameFunction,
	StringLiteral:   chroma.LiteralString,
	Comment:         chroma.Comment,
}

// PaletteFromStyle resolves a palette from a chroma style name. Classes the
// style leaves uncolored keep their default color.
func PaletteFromStyle(name string) Palette {
	if name == "" {
		name = DefaultStyleName
	}
	style := styles.Get(name)
	palette := DefaultPalette()

	for class, tt := range tokenTypes {
		entry := style.Get(tt)
		if entry.Colour.IsSet() {
			palette[class] = entry.Colour.String()
		}
	}
	return palette
}

// StyleExists reports whether name is a registered chroma style
func StyleExists(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

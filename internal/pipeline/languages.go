package pipeline

// DefaultLanguageColor is used for languages without an entry in languageColors.
const DefaultLanguageColor = "#6b7280"

var languageColors = map[string]string{
	"TypeScript": "#3178c6",
	"JavaScript": "#f7df1e",
	"Python":     "#3776ab",
	"Rust":       "#ce422b",
	"Go":         "#00add8",
	"Java":       "#ed8b00",
	"C++":        "#00599c",
	"C":          "#a8b9cc",
	"HTML":       "#e34f26",
	"CSS":        "#1572b6",
	"Vue":        "#4fc08d",
	"React":      "#61dafb",
}

// LanguageColor returns the display color for a language name.
func LanguageColor(name string) string {
	if c, ok := languageColors[name]; ok {
		return c
	}
	return DefaultLanguageColor
}

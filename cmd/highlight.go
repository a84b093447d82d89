package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"codeterm/pkg/highlight"
)

var (
	highlightStyle  string
	highlightMarkup bool
)

// highlightCmd represents the highlight command
var highlightCmd = &cobra.Command{
	Use:   "highlight <file|->",
	Short: "Print a script with the editor's syntax colors",
	Long: `Print a script colored the way the code editor colors it. Functions
defined anywhere in the file are colored wherever they are called.

On a terminal the colors are applied directly; otherwise, or with --markup,
the color markup the editor renders from is printed instead.

Example:
  codeterm highlight solution.py --style dracula`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	highlightCmd.Flags().StringVarP(&highlightStyle, "style", "s", "", "chroma style for the colors (default from config)")
	highlightCmd.Flags().BoolVar(&highlightMarkup, "markup", false, "print color markup instead of colors")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	style := cfg.Palette
	if highlightStyle != "" {
		if !highlight.StyleExists(highlightStyle) {
			return fmt.Errorf("unknown style: %s", highlightStyle)
		}
		style = highlightStyle
	}

	source, err := readSource(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	registry := highlight.NewFunctionRegistry()
	registry.Scan(source)
	h := highlight.NewHighlighter(registry, highlight.PaletteFromStyle(style))

	out := cmd.OutOrStdout()
	markup := highlightMarkup || !isTerminal(out)
	for _, line := range strings.Split(strings.TrimRight(source, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if markup {
			fmt.Fprintln(out, h.Markup(line, -1))
			continue
		}
		writeColored(out, h.Markup(line, -1))
	}
	return nil
}

// writeColored prints one line of highlighter markup as terminal colors
func writeColored(w io.Writer, markup string) {
	var b strings.Builder
	for _, seg := range highlight.ParseMarkup(markup) {
		if seg.Color == "" {
			b.WriteString(seg.Text)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(seg.Color)).Render(seg.Text))
	}
	fmt.Fprintln(w, b.String())
}

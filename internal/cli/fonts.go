package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/dshills/glyphterm/internal/app"
	"github.com/dshills/glyphterm/internal/config"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

func init() {
	f := fontsCmd.Flags()
	f.Bool("bold", false, "resolve with the bold face")
	f.Bool("italic", false, "resolve with the italic face")
	f.Bool("list", false, "list the font families found")
	rootCmd.AddCommand(fontsCmd)
}

var fontsCmd = &cobra.Command{
	Use:   "fonts [text]",
	Short: "Show which font draws each character",
	Long: `fonts resolves every character of text the way the terminal would and
prints the font chosen for it. With --list it prints the families found in
the embedded and configured fonts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, closeLog, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		defer closeLog()

		catalog, err := app.BuildCatalog(cfg.Font, app.GetLogger().WithComponent("font"))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list"); list {
			return listFamilies(out, catalog)
		}

		var style core.FontStyle
		if b, _ := cmd.Flags().GetBool("bold"); b {
			style |= core.StyleBold
		}
		if i, _ := cmd.Flags().GetBool("italic"); i {
			style |= core.StyleItalic
		}
		text := ""
		if len(args) > 0 {
			text = args[0]
		}
		return resolveText(out, catalog, cfg, text, style)
	},
}

func listFamilies(w io.Writer, c *font.Collection) error {
	for _, f := range c.Families() {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	return nil
}

// resolveText prints one line per character of text: the code point, the
// family and atlas drawing it and the cell width.
func resolveText(w io.Writer, catalog font.Catalog, cfg *config.Config, text string, style core.FontStyle) error {
	fonts, err := app.NewFontResolver(catalog, cfg, app.GetLogger().WithComponent("font"))
	if err != nil {
		return app.Fatal(err)
	}
	defer fonts.Unload()

	cw, ch := fonts.CellSize()
	fmt.Fprintf(w, "primary %s, cell %dx%d\n", fonts.Face(style).Pattern(), cw, ch)

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		// The first code point selects the font; the rest combine with it.
		cp := g.Runes()[0]
		atlas, glyph := fonts.Resolve(cp, style)

		where := "missing"
		if glyph != font.NotdefGlyph && atlas != nil {
			where = fmt.Sprintf("%s (atlas %d, glyph %d)", atlas.Typeface().Family(), atlas.ID(), glyph)
		}
		_, err := fmt.Fprintf(w, "%-8s %-4q width %d  %s\n",
			codepoints(cluster), cluster, runewidth.StringWidth(cluster), where)
		if err != nil {
			return err
		}
	}

	st := fonts.Stats()
	_, err = fmt.Fprintf(w, "lookups %d, searches %d, cached fallbacks %d\n", st.Lookups, st.Searches, st.Cache.Size)
	return err
}

func codepoints(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		parts = append(parts, fmt.Sprintf("U+%04X", r))
	}
	return strings.Join(parts, "+")
}

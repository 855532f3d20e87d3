package cli

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/glyphterm/internal/app"
)

func init() {
	for _, c := range []*cobra.Command{snapshotCmd, statsCmd} {
		f := c.Flags()
		f.Int("cols", 0, "grid columns (default from configuration)")
		f.Int("rows", 0, "grid rows (default from configuration)")
		f.Bool("raw", false, "do not turn line feeds into CRLF")
		rootCmd.AddCommand(c)
	}
	snapshotCmd.Flags().StringP("output", "o", "snapshot.png", "PNG file to write")
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [file]",
	Short: "Render recorded terminal output to a PNG",
	Long: `snapshot replays terminal output from file, or stdin when no file is
given, and writes the resulting screen as a PNG image.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := renderInput(cmd, args)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("output")
		if err := writePNG(path, snap); err != nil {
			return err
		}
		b := snap.Image.Bounds()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d cells, %dx%d pixels\n", path, snap.Cols, snap.Rows, b.Dx(), b.Dy())
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Print rendering statistics for recorded terminal output",
	Long: `stats replays terminal output like snapshot and prints, as JSON, the
work done to draw the frame: runs, glyphs, font lookups and the fallback
cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := renderInput(cmd, args)
		if err != nil {
			return err
		}
		doc, err := statsJSON(snap)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(pretty.Pretty(doc))
		return err
	},
}

func renderInput(cmd *cobra.Command, args []string) (*app.Snapshot, error) {
	_, cfg, closeLog, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	data, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	cols, _ := f.GetInt("cols")
	rows, _ := f.GetInt("rows")
	raw, _ := f.GetBool("raw")
	return app.RenderSnapshot(cfg, data, app.SnapshotOptions{
		Cols:   cols,
		Rows:   rows,
		Raw:    raw,
		Logger: app.GetLogger(),
	})
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

func writePNG(path string, snap *app.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, snap.Image); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// statsJSON builds the stats document one path at a time.
func statsJSON(snap *app.Snapshot) ([]byte, error) {
	r, ras := snap.Renderer, snap.Raster
	b := snap.Image.Bounds()
	fields := []struct {
		path  string
		value any
	}{
		{"grid.cols", snap.Cols},
		{"grid.rows", snap.Rows},
		{"grid.width", b.Dx()},
		{"grid.height", b.Dy()},
		{"frame.rows", r.Rows},
		{"frame.runs", r.Runs},
		{"frame.glyphs", r.Glyphs},
		{"tracker.frames", r.Tracker.Frames},
		{"tracker.rows_passed", r.Tracker.RowsPassed},
		{"tracker.minor_rows", r.Tracker.MinorRows},
		{"tracker.major_rows", r.Tracker.MajorRows},
		{"tracker.cells_consumed", r.Tracker.CellsConsumed},
		{"fonts.lookups", r.Fonts.Lookups},
		{"fonts.direct_hits", r.Fonts.DirectHits},
		{"fonts.searches", r.Fonts.Searches},
		{"fonts.gaps", r.Fonts.Gaps},
		{"fonts.cache.size", r.Fonts.Cache.Size},
		{"fonts.cache.max_size", r.Fonts.Cache.MaxSize},
		{"fonts.cache.hits", r.Fonts.Cache.Hits},
		{"fonts.cache.misses", r.Fonts.Cache.Misses},
		{"fonts.cache.evictions", r.Fonts.Cache.Evictions},
		{"fonts.cache.hit_rate", r.Fonts.Cache.HitRate},
		{"raster.rects", ras.Rects},
		{"raster.glyphs", ras.Glyphs},
		{"raster.dirty", ras.Dirty},
		{"raster.missing", ras.Missing},
	}

	doc := []byte(`{}`)
	var err error
	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("stats %s: %w", f.path, err)
		}
	}
	return doc, nil
}

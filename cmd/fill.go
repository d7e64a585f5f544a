package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/coverage"
	"github.com/climate-atlas/climfill/internal/feed"
	"github.com/climate-atlas/climfill/internal/geoindex"
	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
	"github.com/climate-atlas/climfill/internal/report"
)

var fillFlags struct {
	metric      string
	points      string
	input       string
	sheet       string
	boundaries  string
	nameField   string
	granularity string
	neighbors   int
	startYear   int
	endYear     int
	outDir      string
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Complete a sparse observation feed over the district universe",
	Long:  "Assigns observations to districts, classifies coverage over the full district x period cross-product, fills absent cells by neighbor averaging then inverse-distance weighting, and writes the completed table with its audit report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runFill(ctx)
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillFlags.metric, "metric", "", "metric name, e.g. rainfall or temperature (required)")
	fillCmd.Flags().StringVar(&fillFlags.points, "points", "", "grid-point observation CSV")
	fillCmd.Flags().StringVar(&fillFlags.input, "input", "", "district-keyed observation CSV or XLSX")
	fillCmd.Flags().StringVar(&fillFlags.sheet, "sheet", "", "workbook sheet name (XLSX input only)")
	fillCmd.Flags().StringVar(&fillFlags.boundaries, "boundaries", "", "district boundary GeoJSON or shapefile (defaults to config)")
	fillCmd.Flags().StringVar(&fillFlags.nameField, "name-field", "", "district name attribute in the boundary source")
	fillCmd.Flags().StringVar(&fillFlags.granularity, "granularity", "", "period granularity: daily or monthly (defaults to config)")
	fillCmd.Flags().IntVar(&fillFlags.neighbors, "k", 0, "donor count for the distance fallback (defaults to config)")
	fillCmd.Flags().IntVar(&fillFlags.startYear, "start-year", 0, "first year of the study window (defaults to config)")
	fillCmd.Flags().IntVar(&fillFlags.endYear, "end-year", 0, "last year of the study window (defaults to config)")
	fillCmd.Flags().StringVar(&fillFlags.outDir, "out", "", "output directory (defaults to config)")
	_ = fillCmd.MarkFlagRequired("metric")
	rootCmd.AddCommand(fillCmd)
}

func runFill(ctx context.Context) error {
	if (fillFlags.points == "") == (fillFlags.input == "") {
		return eris.New("exactly one of --points or --input is required")
	}

	g := observe.Granularity(fillFlags.granularity)
	if fillFlags.granularity == "" {
		g = observe.Granularity(cfg.Periods.Granularity)
	}
	k := fillFlags.neighbors
	if k == 0 {
		k = cfg.Fill.Neighbors
	}
	startYear, endYear := fillFlags.startYear, fillFlags.endYear
	if startYear == 0 {
		startYear = cfg.Periods.StartYear
	}
	if endYear == 0 {
		endYear = cfg.Periods.EndYear
	}
	outDir := fillFlags.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	log := zap.L().With(zap.String("component", "fill"), zap.String("metric", fillFlags.metric))

	idx, err := loadIndex(fillFlags.boundaries, fillFlags.nameField)
	if err != nil {
		return eris.Wrap(err, "load boundaries")
	}
	log.Info("boundary universe loaded", zap.Int("districts", len(idx.Universe())))

	tbl, err := loadObservations(ctx, idx, g)
	if err != nil {
		return eris.Wrap(err, "load observations")
	}
	log.Info("observation table built", zap.Int("cells", tbl.Len()))

	periods := observe.PeriodRange(startYear, endYear, g)
	cov, err := coverage.Resolve(tbl, idx.Universe(), periods)
	if err != nil {
		return eris.Wrap(err, "resolve coverage")
	}

	filler := interp.New(idx, k, cfg.Fill.Workers)
	res, err := filler.Complete(ctx, tbl, cov)
	if err != nil {
		return eris.Wrap(err, "fill")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "create output dir %s", outDir)
	}
	prefix := filepath.Join(outDir, fillFlags.metric)

	if err := report.WriteCells(prefix+"_completed.csv", res.Cells); err != nil {
		return err
	}
	if err := report.WriteFills(prefix+"_fill_report.csv", res.Fills); err != nil {
		return err
	}
	manifest := report.NewManifest(res, k, string(g), len(idx.Universe()), len(periods))
	if err := report.WriteManifest(prefix+"_manifest.yaml", manifest); err != nil {
		return err
	}

	log.Info("fill outputs written",
		zap.String("run_id", res.RunID),
		zap.String("dir", outDir),
	)
	return nil
}

// loadObservations reads whichever feed shape was given and normalizes
// district names against the boundary universe's key form.
func loadObservations(ctx context.Context, idx *geoindex.Index, g observe.Granularity) (*observe.Table, error) {
	if fillFlags.points != "" {
		points, err := feed.ReadPointsCSV(ctx, fillFlags.points, fillFlags.metric)
		if err != nil {
			return nil, err
		}
		return observe.Assign(idx, fillFlags.metric, points, g), nil
	}

	var obs []observe.Observation
	var err error
	if strings.EqualFold(filepath.Ext(fillFlags.input), ".xlsx") {
		obs, err = feed.ReadDistrictXLSX(fillFlags.input, fillFlags.sheet, fillFlags.metric, g)
	} else {
		obs, err = feed.ReadDistrictCSV(ctx, fillFlags.input, fillFlags.metric, g)
	}
	if err != nil {
		return nil, err
	}

	for i := range obs {
		obs[i].District = geoindex.NormalizeName(obs[i].District)
	}
	return observe.NewTable(fillFlags.metric, obs), nil
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/observe"
	"github.com/climate-atlas/climfill/internal/report"
)

var exportFlags struct {
	cells      string
	period     string
	boundaries string
	nameField  string
	out        string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one period of a completed table as GeoJSON",
	Long:  "Joins a period's completed cells onto the district boundary geometries and writes a FeatureCollection for map rendering. Unresolved cells carry a null value property.",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := observe.ParsePeriod(exportFlags.period)
		if err != nil {
			return eris.Wrap(err, "parse period")
		}

		idx, err := loadIndex(exportFlags.boundaries, exportFlags.nameField)
		if err != nil {
			return eris.Wrap(err, "load boundaries")
		}

		cells, err := report.ReadCells(exportFlags.cells)
		if err != nil {
			return eris.Wrap(err, "read completed cells")
		}

		if err := report.ExportGeoJSON(exportFlags.out, idx, cells, period); err != nil {
			return eris.Wrap(err, "export geojson")
		}

		zap.L().Info("geojson written",
			zap.String("component", "export"),
			zap.String("period", period.String()),
			zap.String("path", exportFlags.out),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.cells, "cells", "", "completed cell table CSV (required)")
	exportCmd.Flags().StringVar(&exportFlags.period, "period", "", "period to export, YYYY-MM or YYYY-MM-DD (required)")
	exportCmd.Flags().StringVar(&exportFlags.boundaries, "boundaries", "", "district boundary GeoJSON or shapefile (defaults to config)")
	exportCmd.Flags().StringVar(&exportFlags.nameField, "name-field", "", "district name attribute in the boundary source")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "export.geojson", "output GeoJSON path")
	_ = exportCmd.MarkFlagRequired("cells")
	_ = exportCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(exportCmd)
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/aggregate"
	"github.com/climate-atlas/climfill/internal/report"
)

var aggregateFlags struct {
	cells string
	out   string
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Roll a completed cell table up to monthly district summaries",
	Long:  "Reduces completed cells to per-district monthly summaries: mean, standard deviation, coefficient of variation, 95th-percentile exceedance counts, per-district z-scores, and provenance tallies. Unresolved cells are excluded, never zeroed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cells, err := report.ReadCells(aggregateFlags.cells)
		if err != nil {
			return eris.Wrap(err, "read completed cells")
		}

		summaries, err := aggregate.Summarize(cells)
		if err != nil {
			return eris.Wrap(err, "summarize")
		}

		if err := report.WriteSummaries(aggregateFlags.out, summaries); err != nil {
			return eris.Wrap(err, "write summaries")
		}

		zap.L().Info("summaries written",
			zap.String("component", "aggregate"),
			zap.Int("summaries", len(summaries)),
			zap.String("path", aggregateFlags.out),
		)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateFlags.cells, "cells", "", "completed cell table CSV (required)")
	aggregateCmd.Flags().StringVar(&aggregateFlags.out, "out", "summaries.csv", "output summary CSV")
	_ = aggregateCmd.MarkFlagRequired("cells")
	rootCmd.AddCommand(aggregateCmd)
}

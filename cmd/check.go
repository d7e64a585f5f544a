package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/climate-atlas/climfill/internal/feed"
	"github.com/climate-atlas/climfill/internal/geoindex"
)

var checkFlags struct {
	input      string
	boundaries string
	nameField  string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Diff a feed's district names against the boundary universe",
	Long:  "Reports districts present in the boundary set but absent from the feed and vice versa, with near-miss suggestions. A feed name outside the universe will fail a fill run, so check first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		idx, err := loadIndex(checkFlags.boundaries, checkFlags.nameField)
		if err != nil {
			return eris.Wrap(err, "load boundaries")
		}

		rawNames, err := feed.DistrictNamesCSV(ctx, checkFlags.input)
		if err != nil {
			return eris.Wrap(err, "read feed district names")
		}

		feedKeys := make(map[string]bool, len(rawNames))
		for _, name := range rawNames {
			feedKeys[geoindex.NormalizeName(name)] = true
		}

		universe := idx.Universe()
		universeSet := make(map[string]bool, len(universe))
		for _, k := range universe {
			universeSet[k] = true
		}

		var missingInFeed, unknownInFeed []string
		for _, k := range universe {
			if !feedKeys[k] {
				missingInFeed = append(missingInFeed, k)
			}
		}
		for k := range feedKeys {
			if !universeSet[k] {
				unknownInFeed = append(unknownInFeed, k)
			}
		}
		sort.Strings(unknownInFeed)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "boundary districts: %d, feed districts: %d\n", len(universe), len(feedKeys))

		fmt.Fprintf(out, "\nin boundaries but not in feed (%d):\n", len(missingInFeed))
		for _, k := range missingInFeed {
			fmt.Fprintf(out, "  %s\n", k)
		}

		fmt.Fprintf(out, "\nin feed but not in boundaries (%d):\n", len(unknownInFeed))
		for _, k := range unknownInFeed {
			if suggestion, ok := closestName(k, universe); ok {
				fmt.Fprintf(out, "  %s (closest: %s)\n", k, suggestion)
			} else {
				fmt.Fprintf(out, "  %s\n", k)
			}
		}

		if len(unknownInFeed) > 0 {
			return eris.Errorf("%d feed district(s) outside the boundary universe", len(unknownInFeed))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFlags.input, "input", "", "district-keyed observation CSV (required)")
	checkCmd.Flags().StringVar(&checkFlags.boundaries, "boundaries", "", "district boundary GeoJSON or shapefile (defaults to config)")
	checkCmd.Flags().StringVar(&checkFlags.nameField, "name-field", "", "district name attribute in the boundary source")
	_ = checkCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(checkCmd)
}

// closestName suggests the nearest universe key by edit distance, within a
// third of the name's length.
func closestName(name string, universe []string) (string, bool) {
	best := ""
	bestDist := len(name)/3 + 1
	for _, cand := range universe {
		if d := editDistance(name, cand); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	return best, best != ""
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

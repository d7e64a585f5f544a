package report

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/climate-atlas/climfill/internal/interp"
)

// Manifest is the run sidecar: enough to reproduce the fill and to audit
// how much of the output is measured versus inferred.
type Manifest struct {
	RunID         string         `yaml:"run_id"`
	Metric        string         `yaml:"metric"`
	GeneratedAt   time.Time      `yaml:"generated_at"`
	Neighbors     int            `yaml:"neighbors"`
	Granularity   string         `yaml:"granularity"`
	Districts     int            `yaml:"districts"`
	Periods       int            `yaml:"periods"`
	Counts        map[string]int `yaml:"counts"`
	AbsentPeriods []string       `yaml:"absent_periods,omitempty"`
}

// NewManifest assembles the manifest for a fill result.
func NewManifest(res *interp.Result, neighbors int, granularity string, districts, periods int) Manifest {
	counts := make(map[string]int, 4)
	for src, n := range res.Counts() {
		counts[string(src)] = n
	}
	m := Manifest{
		RunID:       res.RunID,
		Metric:      res.Metric,
		GeneratedAt: time.Now().UTC(),
		Neighbors:   neighbors,
		Granularity: granularity,
		Districts:   districts,
		Periods:     periods,
		Counts:      counts,
	}
	for _, p := range res.AbsentPeriods {
		m.AbsentPeriods = append(m.AbsentPeriods, p.String())
	}
	return m
}

// WriteManifest writes the manifest as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "report: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

package main

import (
	"github.com/rotisserie/eris"

	"github.com/climate-atlas/climfill/internal/geoindex"
)

// loadIndex builds the boundary index from a flag-or-config path.
func loadIndex(path, nameField string) (*geoindex.Index, error) {
	if path == "" {
		path = cfg.Boundary.Path
	}
	if nameField == "" {
		nameField = cfg.Boundary.NameField
	}
	if path == "" {
		return nil, eris.New("no boundary path: set --boundaries or boundary.path in config")
	}

	districts, err := geoindex.Load(path, nameField)
	if err != nil {
		return nil, err
	}
	return geoindex.NewIndex(districts)
}

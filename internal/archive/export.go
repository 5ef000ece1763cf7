// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"
)

// Export is the document written for one archived run.
type Export struct {
	Search  Record  `json:"search" yaml:"search"`
	Results []Entry `json:"results" yaml:"results"`
}

// ExportYAML writes an archived run to w as YAML.
func (a *Archive) ExportYAML(ctx context.Context, runID string, w io.Writer) error {
	doc, err := a.export(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "marshaling YAML")
	}
	return eris.Wrap(enc.Close(), "marshaling YAML")
}

// ExportJSON writes an archived run to w as indented JSON.
func (a *Archive) ExportJSON(ctx context.Context, runID string, w io.Writer) error {
	doc, err := a.export(ctx, runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(doc), "marshaling JSON")
}

func (a *Archive) export(ctx context.Context, runID string) (Export, error) {
	rec, entries, err := a.Load(ctx, runID)
	if err != nil {
		return Export{}, err
	}
	return Export{Search: rec, Results: entries}, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// QueryFile is the on-disk form of a search request and its raw results. A
// saved search can be replayed later without querying the engines again.
type QueryFile struct {
	Request Request           `yaml:"request"`
	Results []types.RawResult `yaml:"results"`
	Summary QuerySummary      `yaml:"summary"`
}

// QuerySummary stores fetch statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a request and its output to a YAML file.
func WriteQueryFile(path string, req Request, out Output) error {
	qf := QueryFile{
		Request: req,
		Results: out.Results,
		Summary: QuerySummary{
			Total:             len(out.Results),
			DuplicatesRemoved: out.DupsRemoved,
			BackendErrors:     out.BackendErrors,
			Timestamp:         time.Now().UTC(),
		},
	}
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return eris.Wrap(err, "marshaling query file")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writing query file %s", path)
	}
	return nil
}

// ReadQueryFile loads a previously saved query file.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading query file")
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, eris.Wrapf(err, "parsing query file %s", path)
	}
	if qf.Request.Query == "" {
		return nil, eris.Errorf("query file %s has no query", path)
	}
	return &qf, nil
}

// Output returns the saved results as a search output.
func (qf *QueryFile) Output() Output {
	return Output{
		Results:       qf.Results,
		DupsRemoved:   qf.Summary.DuplicatesRemoved,
		BackendErrors: qf.Summary.BackendErrors,
	}
}

// Package report turns a finished campaign into a persistent, comparable
// report: report.json on disk, markdown for humans and a failure diff between
// two campaigns.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"swarmhammer/internal/config"
	"swarmhammer/internal/swarm"
	"swarmhammer/internal/version"
)

// FileName is the report written into the campaign results directory.
const FileName = "report.json"

// ErrIncompatible is returned by Load for reports from another release series.
var ErrIncompatible = errors.New("report was written by an incompatible version")

// Property is one distinct failure line and the workers that reproduced it.
type Property struct {
	Failure  string   `json:"failure"`
	Count    int      `json:"count"`
	Prefixes []string `json:"prefixes"`
}

// LogPaths returns the worker log of every reproduction.
func (p Property) LogPaths() []string {
	paths := make([]string, len(p.Prefixes))
	for i, prefix := range p.Prefixes {
		paths[i] = filepath.Join(prefix, swarm.LogFileName)
	}
	return paths
}

// Report is the final outcome of a campaign.
type Report struct {
	ID          string     `json:"id"`
	Version     string     `json:"version"`
	Name        string     `json:"name"`
	Seed        uint64     `json:"seed"`
	Started     time.Time  `json:"started"`
	Finished    time.Time  `json:"finished"`
	Generations int        `json:"generations"`
	Workers     int        `json:"workers"`
	Killed      int        `json:"killed"`
	Interrupted bool       `json:"interrupted,omitempty"`
	Failures    []string   `json:"failures"`
	Properties  []Property `json:"properties"`
}

// New builds a report from a scheduler result. Properties are ordered by
// ascending reproduction count.
func New(params *config.RunParameters, res *swarm.Result) *Report {
	r := &Report{
		ID:          uuid.New().String(),
		Version:     version.GetVersion(),
		Name:        params.Name,
		Seed:        params.Seed,
		Started:     res.Started,
		Finished:    res.Finished,
		Generations: res.Generations,
		Workers:     res.Workers,
		Killed:      res.Killed,
		Interrupted: res.Interrupted,
		Failures:    append([]string{}, res.Failures...),
		Properties:  []Property{},
	}
	if res.Ledger != nil {
		for _, e := range res.Ledger.Sorted() {
			r.Properties = append(r.Properties, Property{
				Failure:  e.Failure,
				Count:    e.Count(),
				Prefixes: e.Prefixes,
			})
		}
	}
	return r
}

// ExitStatus is the number of failed workers.
func (r *Report) ExitStatus() int {
	return len(r.Failures)
}

// Duration is the wall time of the campaign.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Save writes the report into dir and returns the file path.
func (r *Report) Save(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Load reads a report. path may be the report file or the campaign directory
// holding it.
func Load(path string) (*Report, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}

	ok, err := version.Compatible(r.Version)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (running %s)", ErrIncompatible, r.Version, version.GetVersion())
	}
	return &r, nil
}

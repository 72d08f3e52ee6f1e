// Package storage persists simulation and fit runs as a metadata.json
// plus a traces.csv per run directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // "simulate" or "fit"
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Params    []float64 `json:"params"`
	Cost      float64   `json:"cost,omitempty"`
	RMS       float64   `json:"rms,omitempty"`
	Converged bool      `json:"converged,omitempty"`
	Status    string    `json:"status,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	RelTol    float64   `json:"reltol"`
	AbsTol    float64   `json:"abstol"`
	MaxStep   float64   `json:"dtmax"`
}

// Trace is the stored force history. Measured is nil for pure simulation
// runs.
type Trace struct {
	Times     []float64
	Measured  []float64
	Predicted []float64
}

func (s *Store) SaveRun(meta RunMetadata, trace Trace) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().UnixNano())
	meta.ID = runID
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "traces.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"t", "predicted"}
	if trace.Measured != nil {
		header = []string{"t", "measured", "predicted"}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for i, t := range trace.Times {
		row := []string{fmtF(t)}
		if trace.Measured != nil {
			row = append(row, fmtF(trace.Measured[i]))
		}
		row = append(row, fmtF(trace.Predicted[i]))
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) LoadMetadata(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "traces.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("storage: run %s has no trace rows", runID)
	}
	withMeasured := len(records[0]) == 3

	trace := &Trace{}
	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, err
		}
		trace.Times = append(trace.Times, t)
		if withMeasured {
			m, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return nil, err
			}
			trace.Measured = append(trace.Measured, m)
		}
		p, err := strconv.ParseFloat(rec[len(rec)-1], 64)
		if err != nil {
			return nil, err
		}
		trace.Predicted = append(trace.Predicted, p)
	}
	return trace, nil
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

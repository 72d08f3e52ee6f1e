package storage

import (
	"testing"
)

func TestSaveAndLoadFitRun(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{
		Kind:      "fit",
		Model:     "lugre",
		Params:    []float64{0.35, 0.25, 0.01, 1e5, 300, 0},
		Cost:      1.5e-4,
		RMS:       2.7e-3,
		Converged: true,
		Status:    "gradient below tolerance",
		RelTol:    1e-8,
		AbsTol:    1e-6,
		MaxStep:   1e-3,
	}
	trace := Trace{
		Times:     []float64{0, 0.1, 0.2},
		Measured:  []float64{1, 2, 3},
		Predicted: []float64{1.1, 2.1, 2.9},
	}

	runID, err := store.SaveRun(meta, trace)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadMetadata(runID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "lugre" || !loaded.Converged || loaded.Cost != 1.5e-4 {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if len(loaded.Params) != 6 {
		t.Errorf("expected 6 params, got %d", len(loaded.Params))
	}

	tr, err := store.LoadTrace(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Times) != 3 || tr.Measured == nil {
		t.Fatalf("trace shape mismatch: %+v", tr)
	}
	for i := range trace.Times {
		if tr.Times[i] != trace.Times[i] || tr.Measured[i] != trace.Measured[i] || tr.Predicted[i] != trace.Predicted[i] {
			t.Errorf("row %d mismatch", i)
		}
	}
}

func TestSaveSimulationRunWithoutMeasured(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := store.SaveRun(RunMetadata{Kind: "simulate", Model: "coulomb"}, Trace{
		Times:     []float64{0, 1},
		Predicted: []float64{25, 25},
	})
	if err != nil {
		t.Fatal(err)
	}

	tr, err := store.LoadTrace(runID)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Measured != nil {
		t.Error("expected no measured column")
	}
	if len(tr.Predicted) != 2 || tr.Predicted[0] != 25 {
		t.Errorf("predicted trace mismatch: %+v", tr.Predicted)
	}
}

func TestListRuns(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty store, got %d runs", len(runs))
	}

	for i := 0; i < 3; i++ {
		if _, err := store.SaveRun(RunMetadata{Kind: "simulate", Model: "coulomb"}, Trace{
			Times:     []float64{0},
			Predicted: []float64{1},
		}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

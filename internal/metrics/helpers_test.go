package metrics

import (
	"math"
	"testing"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

func newTestData(t *testing.T, names []string, rows ...[]string) *dataset.Dataset {
	t.Helper()
	cols := make([]dataset.Column, len(names))
	for i, n := range names {
		cols[i] = dataset.Column{Name: n}
	}
	d, err := dataset.New(cols, rows)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return d
}

func mustCalculate(t *testing.T, factory Factory, d *dataset.Dataset, p Params) Result {
	t.Helper()
	m, err := factory(d)
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	r, err := m.Calculate(p)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return r
}

func metaNum(t *testing.T, r Result, key string) float64 {
	t.Helper()
	v, ok := r.Metadata[key]
	if !ok {
		t.Fatalf("metadata key %q missing", key)
	}
	return v.Number()
}

func metaStr(t *testing.T, r Result, key string) string {
	t.Helper()
	v, ok := r.Metadata[key]
	if !ok {
		t.Fatalf("metadata key %q missing", key)
	}
	return v.Text()
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

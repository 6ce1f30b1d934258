package correlation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

func makeMatrix(columns map[string][]float64) *contracts.ReturnsMatrix {
	var symbols []string
	rows := 0
	for s, col := range columns {
		symbols = append(symbols, s)
		rows = len(col)
	}
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			if symbols[j] < symbols[i] {
				symbols[i], symbols[j] = symbols[j], symbols[i]
			}
		}
	}

	timestamps := make([]time.Time, rows)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, 0, i)
	}

	return &contracts.ReturnsMatrix{
		Symbols:    symbols,
		Timestamps: timestamps,
		Columns:    columns,
	}
}

func TestCorrelate_SymmetricUnitDiagonal(t *testing.T) {
	engine := NewEngine(logger.NewNop())

	matrix := makeMatrix(map[string][]float64{
		"A": {0.01, -0.02, 0.03, 0.015, -0.01},
		"B": {0.02, -0.01, 0.025, 0.01, -0.02},
		"C": {-0.01, 0.03, -0.02, 0.005, 0.015},
	})

	corr, err := engine.Correlate(matrix)
	if err != nil {
		t.Fatalf("Correlate() returned error: %v", err)
	}

	n := corr.Size()
	if n != 3 {
		t.Fatalf("Size() = %d, want 3", n)
	}

	for i := 0; i < n; i++ {
		if corr.At(i, i) != 1.0 {
			t.Errorf("diagonal [%d][%d] = %v, want exactly 1.0", i, i, corr.At(i, i))
		}
		for j := 0; j < n; j++ {
			if corr.At(i, j) != corr.At(j, i) {
				t.Errorf("asymmetry at (%d,%d): %v != %v", i, j, corr.At(i, j), corr.At(j, i))
			}
			if corr.At(i, j) < -1.0-1e-12 || corr.At(i, j) > 1.0+1e-12 {
				t.Errorf("coefficient (%d,%d) = %v outside [-1, 1]", i, j, corr.At(i, j))
			}
		}
	}
}

func TestCorrelate_PerfectCorrelation(t *testing.T) {
	engine := NewEngine(logger.NewNop())

	// B is an exact linear multiple of A.
	a := []float64{0.01, 0.02, -0.01, 0.03, -0.02}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = 2 * v
	}

	corr, err := engine.Correlate(makeMatrix(map[string][]float64{"A": a, "B": b}))
	if err != nil {
		t.Fatalf("Correlate() returned error: %v", err)
	}

	got, ok := corr.Lookup("A", "B")
	if !ok {
		t.Fatal("Lookup(A, B) missing")
	}
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("corr(A, 2A) = %v, want 1.0", got)
	}
}

func TestCorrelate_AntiCorrelation(t *testing.T) {
	engine := NewEngine(logger.NewNop())

	a := []float64{0.01, 0.02, -0.01, 0.03, -0.02}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = -v
	}

	corr, err := engine.Correlate(makeMatrix(map[string][]float64{"A": a, "B": b}))
	if err != nil {
		t.Fatalf("Correlate() returned error: %v", err)
	}

	got, _ := corr.Lookup("A", "B")
	if math.Abs(got+1.0) > 1e-12 {
		t.Errorf("corr(A, -A) = %v, want -1.0", got)
	}
}

func TestCorrelate_Empty(t *testing.T) {
	engine := NewEngine(logger.NewNop())

	tests := []struct {
		name  string
		input *contracts.ReturnsMatrix
	}{
		{"nil matrix", nil},
		{"zero columns", &contracts.ReturnsMatrix{}},
		{"zero rows", &contracts.ReturnsMatrix{
			Symbols: []string{"A"},
			Columns: map[string][]float64{"A": {}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Correlate(tt.input)
			if !errors.Is(err, contracts.ErrEmptyMatrix) {
				t.Errorf("Correlate() error = %v, want ErrEmptyMatrix", err)
			}
		})
	}
}

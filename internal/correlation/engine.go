// Package correlation computes pairwise Pearson correlation matrices
// over aligned return columns.
package correlation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// Engine computes correlation matrices. Pure: inputs are never mutated.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new correlation engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Correlate computes the sample Pearson correlation coefficient between
// every pair of asset return columns. The result is symmetric by
// construction with exactly 1.0 on the diagonal. Returns
// contracts.ErrEmptyMatrix when the input has zero columns or rows.
func (e *Engine) Correlate(matrix *contracts.ReturnsMatrix) (*contracts.CorrelationMatrix, error) {
	if matrix == nil || matrix.NumAssets() == 0 || matrix.NumRows() == 0 {
		return nil, fmt.Errorf("returns matrix has no data: %w", contracts.ErrEmptyMatrix)
	}

	n := matrix.NumAssets()
	rows := matrix.NumRows()

	// Column-major sample matrix: one observation row per timestamp.
	data := mat.NewDense(rows, n, nil)
	for j, symbol := range matrix.Symbols {
		col := matrix.Columns[symbol]
		if len(col) != rows {
			return nil, fmt.Errorf("column %s has %d rows, expected %d: %w",
				symbol, len(col), rows, contracts.ErrEmptyMatrix)
		}
		data.SetCol(j, col)
	}

	sym := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(sym, data, nil)

	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				values[i][j] = 1.0
				continue
			}
			values[i][j] = sym.At(i, j)
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"assets": n,
		"rows":   rows,
	}).Info("Computed correlation matrix")

	return &contracts.CorrelationMatrix{
		Symbols: append([]string(nil), matrix.Symbols...),
		Values:  values,
	}, nil
}

package contracts

// CorrelationMatrix is a square symmetric matrix of pairwise Pearson
// correlation coefficients, indexed by asset symbol. Values are in
// [-1, 1] with exactly 1.0 on the diagonal.
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"` // Values[i][j] == Values[j][i]
}

// Size returns the number of assets (rows/columns).
func (m *CorrelationMatrix) Size() int {
	return len(m.Symbols)
}

// IsEmpty reports whether the matrix has no rows or columns.
func (m *CorrelationMatrix) IsEmpty() bool {
	return m == nil || len(m.Symbols) == 0
}

// At returns the correlation between the i-th and j-th assets.
func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// Lookup returns the correlation between two assets by symbol.
func (m *CorrelationMatrix) Lookup(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, s := range m.Symbols {
		if s == a {
			ia = i
		}
		if s == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableColumns(t *testing.T) {
	cols := TableColumns()
	require.Len(t, cols, 7)

	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
		assert.NotEmpty(t, c.Label, c.Key)
	}
	assert.Equal(t, []string{
		ColumnDate, ColumnState,
		ColumnCasesUnvax, ColumnCasesPvax, ColumnCasesFvax, ColumnCasesBoost,
		ColumnTotalCases,
	}, keys)

	assert.False(t, cols[0].Numeric)
	assert.False(t, cols[1].Numeric)
	assert.Equal(t, "Total new cases (Pvax + Fvax + Boosted + Unvax)", cols[6].Help)
}

func TestNumericColumns(t *testing.T) {
	cols := NumericColumns()
	require.Len(t, cols, 5)
	for _, c := range cols {
		assert.True(t, c.Numeric)
		assert.Equal(t, "%d cases", c.Format)
		assert.NotEmpty(t, c.Help)
	}
	assert.Equal(t, ColumnTotalCases, cols[4].Key)
}

func TestColumnSpec_FormatValue(t *testing.T) {
	assert.Equal(t, "42 cases", ColumnSpec{Format: "%d cases"}.FormatValue(42))
	assert.Equal(t, "0 cases", ColumnSpec{Format: "%d cases"}.FormatValue(0))
	assert.Equal(t, "1234", ColumnSpec{}.FormatValue(1234))
}

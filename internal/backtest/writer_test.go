package backtest

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banrisk/fxvar/internal/risk"
)

func TestWriter_TableAndReport(t *testing.T) {
	table := Table{
		{
			Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			VaRHist:    1234.5,
			VaRMC:      1300.2,
			PnLNextDay: -1500,
			BreachHist: true,
			BreachMC:   true,
		},
		{
			Date:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			VaRHist:    1230.0,
			VaRMC:      1290.8,
			PnLNextDay: 400,
			BreachHist: false,
			BreachMC:   false,
		},
	}

	summary, err := Summarize(table, 0.99)
	require.NoError(t, err)

	writer := NewWriter(t.TempDir())
	require.NoError(t, writer.WriteTable(table))
	require.NoError(t, writer.WriteReport(summary))

	// One JSON line per record, round-trippable.
	file, err := os.Open(filepath.Join(writer.OutputDir(), "backtest.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var decoded []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		decoded = append(decoded, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, decoded, len(table))
	for i, rec := range decoded {
		assert.True(t, table[i].Date.Equal(rec.Date))
		assert.Equal(t, table[i].VaRHist, rec.VaRHist)
		assert.Equal(t, table[i].VaRMC, rec.VaRMC)
		assert.Equal(t, table[i].PnLNextDay, rec.PnLNextDay)
		assert.Equal(t, table[i].BreachHist, rec.BreachHist)
		assert.Equal(t, table[i].BreachMC, rec.BreachMC)
	}

	report, err := os.ReadFile(filepath.Join(writer.OutputDir(), "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(report), string(risk.MethodHistorical))
	assert.Contains(t, string(report), string(risk.MethodMonteCarlo))
	assert.Contains(t, string(report), "p-value")
}

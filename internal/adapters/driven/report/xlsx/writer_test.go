package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

func testReport() *domain.Report {
	r := domain.NewReport()
	r.Traced = []domain.ReportRow{{
		"1", "9434765919", "", "", "JOHN", "SMITH", "1980-03-15", "", "1", "AB1 2CD", "", "RADAR",
		nil, nil,
		"9434765919", "JOHN", "SMITH", "", "", "1980-03-15", "2024-01-01", "1", "AB1 2CD",
	}}
	r.Sheets[domain.CategoryDateOfDeath] = []domain.ReportRow{
		{"1", "9434765919", "JOHN", "SMITH", "1980-03-15", nil, "2024-01-01", "Date of death missing in Radar"},
	}
	return r
}

func TestWrite_Sheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "radar_audit_file_2024-01-31.xlsx")
	settings := domain.DefaultConfig().SheetSettings

	require.NoError(t, New().Write(context.Background(), path, settings, testReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"TRACED DATA", "NHS NUM DIFF", "DOB DIFF", "DOD DIFF", "SEX DIFF", "POSTCODE DIFF", "NAME DIFF",
	}, f.GetSheetList())

	traced, err := f.GetRows("TRACED DATA")
	require.NoError(t, err)
	require.Len(t, traced, 2)
	assert.Equal(t, "RADAR ID", traced[0][0])
	assert.Equal(t, "", traced[0][12])
	assert.Equal(t, "TRACED NHS NUMBER", traced[0][14])
	assert.Equal(t, "9434765919", traced[1][1])
	assert.Equal(t, "2024-01-01", traced[1][20])

	dod, err := f.GetRows("DOD DIFF")
	require.NoError(t, err)
	require.Len(t, dod, 2)
	assert.Equal(t, settings.DODDiff, dod[0])
	assert.Equal(t, "", dod[1][5])
	assert.Equal(t, "Date of death missing in Radar", dod[1][7])

	nhs, err := f.GetRows("NHS NUM DIFF")
	require.NoError(t, err)
	require.Len(t, nhs, 1)
	assert.Equal(t, settings.NHSNumDiff, nhs[0])
}

func TestWrite_ColumnWidthsAndAlignment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, New().Write(context.Background(), path, domain.DefaultConfig().SheetSettings, testReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// "Date of death missing in Radar" is the longest value in column H
	width, err := f.GetColWidth("DOD DIFF", "H")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Date of death missing in Radar")+2), width)

	// Gap columns carry no text
	width, err = f.GetColWidth("TRACED DATA", "M")
	require.NoError(t, err)
	assert.Equal(t, float64(emptyColumnWidth+columnPadding), width)

	styleID, err := f.GetCellStyle("DOD DIFF", "B2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Alignment)
	assert.Equal(t, "center", style.Alignment.Horizontal)
}

func TestTextWidth(t *testing.T) {
	assert.Equal(t, 0, textWidth(nil))
	assert.Equal(t, 5, textWidth("Zoë L"))
	assert.Equal(t, 2, textWidth(42))
}

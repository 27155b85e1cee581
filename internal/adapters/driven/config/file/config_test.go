package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[paths]
work_dir = "/srv/radar"
tracing_outbox = "/mnt/rr/out"

[formatting]
date_format = "02/01/2006"
patients_per_file = 100

[radar_trace_user]
id = 42

[sheet_settings]
order_for_tracing = [1, 3, 2, 4, 5, 6, 7, 8, 9]
traced_id_column = 0
basic_line = ["patient_id", "nhs_number"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/radar", cfg.Paths.WorkDir)
	assert.Equal(t, "/mnt/rr/out", cfg.Paths.TracingOutbox)
	assert.Equal(t, "tracing/inbox", cfg.Paths.TracingInbox)
	assert.Equal(t, "02/01/2006", cfg.Formatting.DateFormat)
	assert.Equal(t, 100, cfg.Formatting.PatientsPerFile)
	assert.Equal(t, int64(42), cfg.RadarTraceUser.ID)
	assert.Equal(t, []int{1, 3, 2, 4, 5, 6, 7, 8, 9}, cfg.SheetSettings.OrderForTracing)
	assert.Equal(t, 0, cfg.SheetSettings.TracedIDColumn)
	assert.Equal(t, []domain.Field{domain.FieldPatientID, domain.FieldNHSNumber}, cfg.SheetSettings.BasicLine)
	assert.Equal(t, domain.DefaultConfig().SheetSettings.NHSNumDiff, cfg.SheetSettings.NHSNumDiff)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[paths]\nwork_folder = \"x\"\n"},
		{"short order", "[sheet_settings]\norder_for_tracing = [1, 2]\n"},
		{"unknown basic line field", "[sheet_settings]\nbasic_line = [\"shoe_size\"]\n"},
		{"traced tracing column", "[sheet_settings]\ntracing_columns = [\"traced_nhs_number\"]\n"},
		{"wrong type", "[formatting]\npatients_per_file = \"many\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

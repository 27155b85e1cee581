package domain

import "fmt"

// Config is the typed view of config.toml.
type Config struct {
	Paths          PathSettings      `toml:"paths"`
	Logging        LoggingSettings   `toml:"logging"`
	Metrics        MetricsSettings   `toml:"metrics"`
	Radar          RadarSettings     `toml:"radar"`
	Registry       RegistrySettings  `toml:"registry"`
	Formatting     FormatSettings    `toml:"formatting"`
	RadarTraceUser TraceUserSettings `toml:"radar_trace_user"`
	SheetSettings  SheetSettings     `toml:"sheet_settings"`
}

// PathSettings locates the working directory and the tracing exchange folders.
type PathSettings struct {
	WorkDir       string `toml:"work_dir"`
	TracingInbox  string `toml:"tracing_inbox"`
	TracingOutbox string `toml:"tracing_outbox"`
	ManifestDB    string `toml:"manifest_db"`
}

// LoggingSettings configures the run log.
type LoggingSettings struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsSettings configures the node-exporter textfiles written after each stage.
// An empty TextfileDir disables metrics.
type MetricsSettings struct {
	TextfileDir string `toml:"textfile_dir"`
}

// RadarSettings configures access to the Radar database.
// An empty DSN defers to the standard PG* environment variables.
type RadarSettings struct {
	DSN          string `toml:"dsn"`
	PatientQuery string `toml:"patient_query_file"`
}

// RegistrySettings configures access to the RR database.
type RegistrySettings struct {
	Sequence string `toml:"sequence"`
}

// FormatSettings controls the trace request file.
type FormatSettings struct {
	// DateFormat is a Go time layout used for dates in the request file.
	DateFormat      string `toml:"date_format"`
	PatientsPerFile int    `toml:"patients_per_file"`
}

// TraceUserSettings is the Radar user corrective writes are attributed to.
type TraceUserSettings struct {
	ID int64 `toml:"id"`
}

// SheetSettings drives every report and file layout.
type SheetSettings struct {
	AuditCSVHeadings   []string `toml:"audit_csv_headings"`
	AuditTracedHeaders []string `toml:"audit_traced_headers"`

	// TracingColumns are the audit fields sent in each trace request row.
	TracingColumns []Field `toml:"tracing_columns"`

	// OrderForTracing picks traced file columns, in TracedFields order.
	OrderForTracing []int `toml:"order_for_tracing"`

	// TracedIDColumn is the traced file column holding the patient identifier.
	TracedIDColumn int `toml:"traced_id_column"`

	// BasicLine is the base shape shared by every discrepancy sheet.
	BasicLine []Field `toml:"basic_line"`

	NHSNumDiff   []string `toml:"nhs_num_diff"`
	DOBDiff      []string `toml:"dob_diff"`
	DODDiff      []string `toml:"dod_diff"`
	SexDiff      []string `toml:"sex_diff"`
	PostcodeDiff []string `toml:"postcode_diff"`
	NameDiff     []string `toml:"name_diff"`
}

// Headers returns the header row of the category's sheet.
func (s SheetSettings) Headers(c Category) []string {
	switch c {
	case CategoryNHSNumber:
		return s.NHSNumDiff
	case CategoryDateOfBirth:
		return s.DOBDiff
	case CategoryDateOfDeath:
		return s.DODDiff
	case CategoryGender:
		return s.SexDiff
	case CategoryPostcode:
		return s.PostcodeDiff
	case CategoryName:
		return s.NameDiff
	default:
		return nil
	}
}

// TracedDataHeaders is the header row of the TRACED DATA sheet.
func (s SheetSettings) TracedDataHeaders() ReportRow {
	headers := make(ReportRow, 0, len(s.AuditCSVHeadings)+GapWidth+len(s.AuditTracedHeaders))
	for _, h := range s.AuditCSVHeadings {
		headers = append(headers, h)
	}
	for i := 0; i < GapWidth; i++ {
		headers = append(headers, nil)
	}
	for _, h := range s.AuditTracedHeaders {
		headers = append(headers, h)
	}
	return headers
}

// DefaultConfig returns the settings of the standard Radar / RR exchange.
func DefaultConfig() Config {
	return Config{
		Paths: PathSettings{
			WorkDir:       ".",
			TracingInbox:  "tracing/inbox",
			TracingOutbox: "tracing/outbox",
			ManifestDB:    "radar_tracing.db",
		},
		Logging: LoggingSettings{
			File:  "radar_tracing.log",
			Level: "info",
		},
		Registry: RegistrySettings{
			Sequence: "SEQ_NHS_Tracing_Batch",
		},
		Formatting: FormatSettings{
			DateFormat:      "20060102",
			PatientsPerFile: 20000,
		},
		SheetSettings: SheetSettings{
			AuditCSVHeadings: []string{
				"RADAR ID", "NHS NUMBER", "CHI NUMBER", "HSC NUMBER", "FIRST NAME", "LAST NAME",
				"DATE OF BIRTH", "DATE OF DEATH", "GENDER", "POSTCODE", "UKRDC ID", "SOURCE GROUP",
			},
			AuditTracedHeaders: []string{
				"TRACED NHS NUMBER", "TRACED FIRST NAME", "TRACED LAST NAME", "TRACED OTHER NAMES",
				"TRACED PREVIOUS LAST NAME", "TRACED DATE OF BIRTH", "TRACED DATE OF DEATH",
				"TRACED GENDER", "TRACED POSTCODE",
			},
			TracingColumns: []Field{
				FieldPatientID, FieldNHSNumber, FieldLastName, FieldFirstName,
				FieldDateOfBirth, FieldGender, FieldPostcode,
			},
			OrderForTracing: []int{2, 4, 3, 5, 6, 7, 8, 9, 10},
			TracedIDColumn:  1,
			BasicLine: []Field{
				FieldPatientID, FieldNHSNumber, FieldFirstName, FieldLastName, FieldDateOfBirth,
			},
			NHSNumDiff: []string{
				"RADAR ID", "NHS NUMBER", "FIRST NAME", "LAST NAME", "DATE OF BIRTH",
				"CHI NUMBER", "HSC NUMBER", "TRACED NHS NUMBER", "MESSAGE",
			},
			DOBDiff:      valueSheetHeaders("DATE OF BIRTH"),
			DODDiff:      valueSheetHeaders("DATE OF DEATH"),
			SexDiff:      valueSheetHeaders("GENDER"),
			PostcodeDiff: valueSheetHeaders("POSTCODE"),
			NameDiff: []string{
				"RADAR ID", "NHS NUMBER", "FIRST NAME", "LAST NAME", "DATE OF BIRTH",
				"TRACED FIRST NAME", "TRACED LAST NAME", "TRACED OTHER NAMES",
				"TRACED PREVIOUS LAST NAME", "MESSAGE",
			},
		},
	}
}

func valueSheetHeaders(field string) []string {
	return []string{
		"RADAR ID", "NHS NUMBER", "FIRST NAME", "LAST NAME", "DATE OF BIRTH",
		"RADAR " + field, "TRACED " + field, "MESSAGE",
	}
}

// Validate checks the settings the reconciliation engine relies on.
func (c Config) Validate() error {
	s := c.SheetSettings
	if len(s.OrderForTracing) != len(TracedFields) {
		return fmt.Errorf("%w: order_for_tracing has %d entries, want %d",
			ErrInvalidInput, len(s.OrderForTracing), len(TracedFields))
	}
	for _, n := range s.OrderForTracing {
		if n < 0 {
			return fmt.Errorf("%w: order_for_tracing index %d", ErrInvalidInput, n)
		}
	}
	if s.TracedIDColumn < 0 {
		return fmt.Errorf("%w: traced_id_column %d", ErrInvalidInput, s.TracedIDColumn)
	}
	if len(s.BasicLine) == 0 {
		return fmt.Errorf("%w: basic_line is empty", ErrInvalidInput)
	}
	for _, f := range s.BasicLine {
		if _, ok := DefaultFieldIndex.Position(f); !ok {
			return fmt.Errorf("%w: basic_line field %q", ErrInvalidInput, f)
		}
	}
	for _, f := range s.TracingColumns {
		if IsTraced(f) {
			return fmt.Errorf("%w: tracing_columns field %q is not an audit field", ErrInvalidInput, f)
		}
		if _, ok := DefaultFieldIndex.Position(f); !ok {
			return fmt.Errorf("%w: tracing_columns field %q", ErrInvalidInput, f)
		}
	}
	if len(s.AuditCSVHeadings) != len(AuditFields) {
		return fmt.Errorf("%w: audit_csv_headings has %d entries, want %d",
			ErrInvalidInput, len(s.AuditCSVHeadings), len(AuditFields))
	}
	if c.Formatting.PatientsPerFile < 0 {
		return fmt.Errorf("%w: patients_per_file %d", ErrInvalidInput, c.Formatting.PatientsPerFile)
	}
	return nil
}

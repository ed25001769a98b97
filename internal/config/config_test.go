package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOURCE_KIND", "xlsx")
	t.Setenv("SOURCE_XLSX_PATH", "facturas.xlsx")
	t.Setenv("SMTP_USER", "cxc@example.com")
	t.Setenv("LOG_RECIPIENTS", "ops@example.com; it@example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceXLSX, cfg.SourceKind)
	assert.Equal(t, "CRC", cfg.LocalCurrencyCode)
	assert.Equal(t, []string{"CRC", "COL"}, cfg.LocalCurrencyAliases)
	assert.Equal(t, "space", cfg.PageBreakPolicy)
	assert.Equal(t, ArchiveNone, cfg.ArchiveBackend)
	assert.Equal(t, 60*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, "cxc@example.com", cfg.SMTPFrom, "from falls back to the SMTP user")
	assert.Equal(t, []string{"ops@example.com", "it@example.com"}, cfg.LogRecipients)
	assert.True(t, cfg.S3UsePathStyle)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"sql without url", map[string]string{"SOURCE_KIND": "sql"}},
		{"unknown source", map[string]string{"SOURCE_KIND": "csv"}},
		{"bad policy", map[string]string{"SOURCE_KIND": "xlsx", "SOURCE_XLSX_PATH": "a.xlsx", "PAGE_BREAK_POLICY": "bands"}},
		{"s3 without keys", map[string]string{"SOURCE_KIND": "xlsx", "SOURCE_XLSX_PATH": "a.xlsx", "ARCHIVE_BACKEND": "s3", "ARCHIVE_BUCKET": "b"}},
		{"unknown archive", map[string]string{"SOURCE_KIND": "xlsx", "SOURCE_XLSX_PATH": "a.xlsx", "ARCHIVE_BACKEND": "ftp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateDelivery(t *testing.T) {
	cfg := &Config{SMTPHost: "smtp.example.com"}
	assert.Error(t, cfg.ValidateDelivery())

	cfg.SMTPUser, cfg.SMTPPass = "u", "p"
	assert.NoError(t, cfg.ValidateDelivery())
}

func TestLoadProfileDefaults(t *testing.T) {
	profile, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, 10.0, profile.RowHeight)
	require.Len(t, profile.Density, 1)
	assert.Equal(t, 9.0, profile.Density[0].Height)
	assert.Len(t, profile.FontSteps, 5)
}

func TestLoadProfileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	doc := `
company:
  name: Agencia Ejemplo S.A.
  footer_email: estados@example.com
bank_accounts:
  - bank: Banco Uno
    local_iban: CR00000000000000000001
    usd_iban: CR00000000000000000002
font_steps:
  - {min_total: 0, size: 12}
  - {min_total: 5000, size: 9}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Agencia Ejemplo S.A.", profile.Company.Name)
	require.Len(t, profile.BankAccounts, 1)
	assert.Equal(t, "Banco Uno", profile.BankAccounts[0].Bank)
	assert.Equal(t, 5000.0, profile.FontSteps[0].MinTotal, "steps sorted high to low")
	assert.NotEmpty(t, profile.NumberingNote, "unset keys keep defaults")
}

func TestLoadProfileRejectsBadBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("density:\n  - {min_rows: 12, max_rows: 10, height: 8}\n"), 0o644))

	_, err := LoadProfile(path)
	assert.Error(t, err)
}

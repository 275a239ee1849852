package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Severities(t *testing.T) {
	var d Diagnostics
	d.AddInfo("skipped", "rule skipped", "a", "")
	d.AddWarning("override-conflict", "first wins", "b", "lines")
	require.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddError("unknown_field", `no field "nmae"`, "c", "nmae")
	d.AddError("missing_namespace", "namespace is required", "", "")
	assert.False(t, d.IsValid())
	assert.Equal(t, 4, d.Len())

	all := d.All()
	require.Len(t, all, 4)
	assert.Equal(t, []DiagnosticSeverity{DiagnosticError, DiagnosticError, DiagnosticWarning, DiagnosticInfo},
		[]DiagnosticSeverity{all[0].Severity, all[1].Severity, all[2].Severity, all[3].Severity})

	assert.EqualError(t, d.Error(), `rule c nmae: [unknown_field] no field "nmae"; [missing_namespace] namespace is required`)
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "info", DiagnosticInfo.String())
	assert.Equal(t, "warning", DiagnosticWarning.String())
	assert.Equal(t, "error", DiagnosticError.String())
	assert.Equal(t, "DiagnosticSeverity(7)", DiagnosticSeverity(7).String())
}

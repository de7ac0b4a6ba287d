package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/triage/finding"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadLabeledSet_YAML(t *testing.T) {
	path := writeFile(t, "set.yaml", `
name: smoke
examples:
  - label: tp
    finding:
      id: f-1
      vulnerability_type: xss
      severity: HIGH
      confidence: 0.7
      payload: "<script>alert(1)</script>"
      response: "<script>alert(1)</script>"
      proof:
        execution_confirmed: true
  - label: 1
    finding:
      id: f-2
      vulnerability_type: sqli
      severity: low
      confidence: 0.2
      payload: "' or 1=1"
`)

	set, err := LoadLabeledSet(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", set.Name)
	require.Len(t, set.Examples, 2)
	assert.Equal(t, finding.LabelTruePositive, set.Examples[0].Label)
	assert.Equal(t, finding.SeverityHigh, set.Examples[0].Finding.Severity)
	assert.True(t, set.Examples[0].Finding.Proof.Bool(finding.ProofExecutionConfirmed))
	assert.Equal(t, finding.LabelFalsePositive, set.Examples[1].Label)
}

func TestLoadLabeledSet_JSON(t *testing.T) {
	path := writeFile(t, "set.json", `{"examples":[
		{"label":"fp","finding":{"id":"a","confidence":0.1}},
		{"label":"true_positive","finding":{"id":"b","confidence":0.9}}
	]}`)

	set, err := LoadLabeledSet(path)
	require.NoError(t, err)
	require.Len(t, set.Examples, 2)
	assert.Equal(t, finding.LabelFalsePositive, set.Examples[0].Label)
	assert.Equal(t, finding.LabelTruePositive, set.Examples[1].Label)
}

func TestLoadLabeledSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "set.txt", "examples: []"},
		{"empty set", "set.yaml", "examples: []"},
		{"bad label", "set.yaml", "examples:\n  - label: maybe\n    finding: {id: x}\n"},
		{"bad confidence", "set.json", `{"examples":[{"label":"tp","finding":{"id":"x","confidence":3}}]}`},
		{"malformed json", "set.json", `{"examples":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLabeledSet(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadLabeledSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

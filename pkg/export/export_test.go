package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"NRC", "Materia", "Día"},
		Rows: []map[string]string{
			{"NRC": "101", "Materia": "CÁLCULO", "Día": "Lunes"},
			{"NRC": "102", "Materia": "FÍSICA", "Día": "Miércoles"},
		},
		Notes: []string{"El día Lunes, la materia \"CÁLCULO\" se cruza con \"FÍSICA\"."},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	body := string(out[len(utf8BOM):])
	assert.Contains(t, body, "NRC,Materia,Día\n101,CÁLCULO,Lunes\n")
	assert.Contains(t, body, "cruza")

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Horario 2025A")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

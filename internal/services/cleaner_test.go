package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ligatures", "ﬁne ﬂow", "fine flow"},
		{"dashes", "a — b – c", "a - b - c"},
		{"plain text untouched", "Hola mundo", "Hola mundo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keeps plain lines",
			input: "Factura de compra\nTotal pendiente",
			want:  "Factura de compra\nTotal pendiente",
		},
		{
			name:  "keeps accented text",
			input: "Atención al público",
			want:  "Atención al público",
		},
		{
			name:  "keeps enie",
			input: "El niño pequeño de España",
			want:  "El niño pequeño de España",
		},
		{
			name:  "keeps dieresis",
			input: "El pingüino bebe agua",
			want:  "El pingüino bebe agua",
		},
		{
			name:  "keeps uppercase accents",
			input: "AÑO NUEVO EN ASUNCIÓN",
			want:  "AÑO NUEVO EN ASUNCIÓN",
		},
		{
			name:  "drops symbol-dominated lines",
			input: "Texto legible aquí\n@#$%^&*@#$%^&*@#",
			want:  "Texto legible aquí",
		},
		{
			name:  "drops number-dominated lines",
			input: "Resumen mensual\n12345 678 90 123",
			want:  "Resumen mensual",
		},
		{
			name:  "collapses consecutive duplicates",
			input: "Linea repetida\nLINEA REPETIDA\nOtra linea",
			want:  "Linea repetida\nOtra linea",
		},
		{
			name:  "collapses repeated spaces",
			input: "mucho    espacio\t\taqui",
			want:  "mucho espacio aqui",
		},
		{
			name:  "drops short fragments",
			input: "ab\nFragmento completo",
			want:  "Fragmento completo",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestCleanText_StripsLeadingGarbage(t *testing.T) {
	got := CleanText("|:;, Encabezado limpio")
	assert.Equal(t, "Encabezado limpio", got)
}

package djen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStripHTML tests markup removal from gazette payloads
func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"simple markup",
			"<div><p>Intimação do <b>advogado</b></p></div>",
			"Intimação do advogado",
		},
		{
			"script and style dropped",
			"<style>p{color:red}</style><p>Texto</p><script>alert(1)</script>",
			"Texto",
		},
		{
			"whitespace collapsed",
			"<p>Processo\n\n   em     tramite</p>",
			"Processo em tramite",
		},
		{
			"plain text passthrough",
			"sem marcacao alguma",
			"sem marcacao alguma",
		},
		{
			"empty",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

// TestCanonicalise tests the identity-defining text form
func TestCanonicalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents folded", "Intimação do Advogado", "intimacao do advogado"},
		{"whitespace collapsed", "  texto \t com\n espacos  ", "texto com espacos"},
		{"mixed", "DECISÃO   Publicada", "decisao publicada"},
		{"cedilla", "Açao", "acao"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalise(tt.in))
		})
	}
}

// TestCanonicalise_IdentityStable tests that formatting variants of
// the same text canonicalise identically.
func TestCanonicalise_IdentityStable(t *testing.T) {
	a := Canonicalise("Intimação   do advogado João")
	b := Canonicalise("INTIMACAO DO ADVOGADO JOAO")
	assert.Equal(t, a, b)
}

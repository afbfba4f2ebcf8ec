package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

var scorerTarget = domain.Registration{Number: "123456", UF: "SP"}

// TestScorer_StructuredOnly tests a publication matched only by the
// structured recipient field. Structured alone must clear the default
// threshold: 0.95 * 0.6 = 0.57.
func TestScorer_StructuredOnly(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "Despacho de mero expediente sem mencao a advogados.",
		Recipients: []domain.Recipient{
			{Name: "Joao Silva", Registration: domain.Registration{Number: "123.456", UF: "sp"}},
		},
	}

	result := scorer.Score(pub, scorerTarget)

	assert.InDelta(t, 0.95, result.Structured, 0.0001)
	assert.Zero(t, result.Text)
	assert.InDelta(t, 0.57, result.Final, 0.0001)
	assert.True(t, result.Relevant(scorer.Threshold()))

	require.Len(t, result.Reasons, 1)
	assert.Equal(t, domain.MatchStructured, result.Reasons[0].Kind)
	assert.Equal(t, -1, result.Reasons[0].Position)
}

// TestScorer_NoSignal tests that a publication with neither signal
// scores exactly zero.
func TestScorer_NoSignal(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "Sentenca publicada nos autos, sem representacao constituida.",
	}

	result := scorer.Score(pub, scorerTarget)

	assert.Zero(t, result.Structured)
	assert.Zero(t, result.Text)
	assert.Zero(t, result.Final)
	assert.False(t, result.Relevant(scorer.Threshold()))
	assert.Empty(t, result.Reasons)
}

// TestScorer_TextFormattedMention tests the highest-confidence text
// pattern with an early mention: 0.95 + 0.05 position, weighted 0.4.
func TestScorer_TextFormattedMention(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "OAB 123.456/SP fica intimado o advogado da parte autora " +
			strings.Repeat("para os atos processuais seguintes ", 10),
	}

	result := scorer.Score(pub, scorerTarget)

	assert.Zero(t, result.Structured)
	assert.InDelta(t, 1.0, result.Text, 0.0001)
	assert.InDelta(t, 0.4, result.Final, 0.0001)
	assert.True(t, result.Relevant(scorer.Threshold()))
}

// TestScorer_TextLateMention tests the position penalty for a mention
// in the last fifth of the text.
func TestScorer_TextLateMention(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: strings.Repeat("relatorio e fundamentacao da decisao ", 30) +
			"OAB 123456/SP",
	}

	result := scorer.Score(pub, scorerTarget)

	// 0.95 base - 0.05 late position.
	assert.InDelta(t, 0.90, result.Text, 0.0001)
	assert.InDelta(t, 0.36, result.Final, 0.0001)
}

// TestScorer_BothSignals tests the weighted combination when both
// signal families fire.
func TestScorer_BothSignals(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "OAB 123.456/SP intimacao do advogado " +
			strings.Repeat("sobre o andamento do feito ", 10),
		Recipients: []domain.Recipient{
			{Name: "Joao Silva", Registration: domain.Registration{Number: "123456", UF: "SP"}},
		},
	}

	result := scorer.Score(pub, scorerTarget)

	// 0.95*0.6 + 1.0*0.4 = 0.97.
	assert.InDelta(t, 0.97, result.Final, 0.0001)
}

// TestScorer_WrongRegistration tests that another lawyer's registration
// contributes nothing.
func TestScorer_WrongRegistration(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "Fica intimado o advogado OAB 999999/RJ para manifestacao.",
		Recipients: []domain.Recipient{
			{Name: "Outra Pessoa", Registration: domain.Registration{Number: "999999", UF: "RJ"}},
		},
	}

	result := scorer.Score(pub, scorerTarget)
	assert.Zero(t, result.Final)
}

// TestScorer_Deterministic tests that repeated scoring of the same
// input yields identical results.
func TestScorer_Deterministic(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	pub := domain.Publication{
		RawText: "Dr. Joao Silva OAB 123456 SP e tambem OAB/SP 123456 nos autos " +
			strings.Repeat("do processo em epigrafe ", 20),
	}

	first := scorer.Score(pub, scorerTarget)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(pub, scorerTarget))
	}
}

// TestScorer_MentionsNotDoubleCounted tests that one textual mention
// matched by several patterns counts once for the density bonus.
func TestScorer_MentionsNotDoubleCounted(t *testing.T) {
	scorer := NewRelevanceScorer(ScorerConfig{})

	// Unformatted mention matches several patterns at the same offset.
	pub := domain.Publication{
		RawText: "OAB 123456/SP consta dos autos " +
			strings.Repeat("entre as demais anotacoes do expediente ", 10),
	}

	result := scorer.Score(pub, scorerTarget)

	// One mention: 0.95 base + 0.05 early position, no density bonus.
	assert.InDelta(t, 1.0, result.Text, 0.0001)

	total := 0
	for _, r := range result.Reasons {
		assert.Equal(t, 1, r.Occurrences)
		total += r.Occurrences
	}
	assert.GreaterOrEqual(t, total, 1)
}

// TestDensityBonus tests the mention-density bonus table.
func TestDensityBonus(t *testing.T) {
	tests := []struct {
		occurrences int
		want        float64
	}{
		{0, 0},
		{1, 0},
		{2, 0.1},
		{3, 0.2},
		{7, 0.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, densityBonus(tt.occurrences), 0.0001)
	}
}

// TestPositionAdjustment tests the position bands.
func TestPositionAdjustment(t *testing.T) {
	tests := []struct {
		name   string
		pos    int
		length int
		want   float64
	}{
		{"start", 0, 1000, 0.05},
		{"under first fifth", 199, 1000, 0.05},
		{"middle", 500, 1000, 0},
		{"at four fifths", 800, 1000, 0},
		{"late", 900, 1000, -0.05},
		{"no match", -1, 1000, 0},
		{"empty text", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, positionAdjustment(tt.pos, tt.length), 0.0001)
		})
	}
}

// TestScorer_SuspectContext tests the false-positive guard for digit
// runs that appear next to case-number vocabulary without the OAB
// marker in reach.
func TestScorer_SuspectContext(t *testing.T) {
	// The guard only applies when "oab" is outside the context
	// window; every pattern anchors on the marker, so a crafted long
	// gap is required for it to fire.
	text := "OAB" + strings.Repeat(" ", 60) + "123456  SP no processo em tramite"
	window := strings.ToLower(text[60:])
	assert.NotContains(t, window, "oab")

	assert.True(t, suspectContext(text, 63, 74))
}

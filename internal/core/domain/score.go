package domain

// MatchKind distinguishes where a relevance signal came from.
type MatchKind string

const (
	// MatchStructured is an exact match against the parsed recipient field.
	MatchStructured MatchKind = "structured"

	// MatchText is a pattern match found in the free text.
	MatchText MatchKind = "text"
)

// MatchReason records one piece of evidence behind a score, kept for
// auditability alongside the persisted publication.
type MatchReason struct {
	// Kind is the signal family that produced this reason.
	Kind MatchKind `json:"kind"`

	// Pattern names the matcher (pattern name for text matches,
	// "recipient" for structured matches).
	Pattern string `json:"pattern"`

	// Confidence is the matcher's own confidence, before weighting.
	Confidence float64 `json:"confidence"`

	// Occurrences is how many times the matcher fired.
	Occurrences int `json:"occurrences"`

	// Position is the byte offset of the first occurrence in the raw
	// text. -1 for structured matches.
	Position int `json:"position"`

	// Excerpt is a short context window around the first occurrence.
	// Empty for structured matches.
	Excerpt string `json:"excerpt,omitempty"`
}

// ScoreResult is the outcome of scoring one publication against one
// target registration. All values are in [0, 1].
type ScoreResult struct {
	// Structured is the structured-field signal.
	Structured float64 `json:"structured"`

	// Text is the free-text signal after density and position
	// adjustments.
	Text float64 `json:"text"`

	// Final is the weighted combination, capped at 1.
	Final float64 `json:"final"`

	// Reasons lists the evidence behind the score.
	Reasons []MatchReason `json:"reasons,omitempty"`
}

// Relevant reports whether the result clears the given threshold.
func (s ScoreResult) Relevant(threshold float64) bool {
	return s.Final >= threshold
}

// ScoredPublication pairs a publication with its score against the
// target it was evaluated for. This is the unit the durable store
// persists.
type ScoredPublication struct {
	Publication Publication
	Target      Registration
	Score       ScoreResult
}

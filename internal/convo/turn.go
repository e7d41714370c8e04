package convo

import (
	"time"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
)

// Sentinel evidence substituted when the top retrieval score falls below the
// acceptance threshold. The model is prompted to decline to answer when it
// sees this record.
const (
	SentinelText   = "NO CONTEXT FOUND"
	SentinelSource = "NONE"
)

// EvidenceRecord is the (text, source, score) triple that conditions
// generation for one turn, possibly the sentinel.
type EvidenceRecord struct {
	Text   string
	Source string
	Score  float64
}

// Sentinel reports whether the record is the "no evidence" sentinel.
func (e EvidenceRecord) Sentinel() bool {
	return e.Text == SentinelText && e.Source == SentinelSource
}

// Turn is one question/evidence/answer unit within a conversation. Question
// and evidence are set together at creation and never change; Completion and
// Answer are set exactly once when generation finishes.
type Turn struct {
	Question string
	Evidence EvidenceRecord
	// Completion is the raw model output for this turn, kept verbatim so the
	// transcript replays the model-authored thought and response lines.
	Completion string
	// Answer is the extracted final answer returned to the caller.
	Answer     string
	Answered   bool
	CreatedAt  time.Time
	AnsweredAt time.Time
}

// SelectEvidence applies the acceptance threshold to the top retrieval
// candidate. Scores at or above the threshold accept the candidate verbatim;
// anything below degrades to the sentinel. Pure function, no side effects.
func SelectEvidence(candidate retrieval.Match, threshold float64) EvidenceRecord {
	if candidate.Score >= threshold {
		return EvidenceRecord{Text: candidate.Text, Source: candidate.Source, Score: candidate.Score}
	}
	return EvidenceRecord{Text: SentinelText, Source: SentinelSource, Score: 0}
}

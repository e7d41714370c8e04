package convo

import (
	"strings"
	"testing"
	"time"
)

func answeredTurn(question, context, url string, score float64, completion string) Turn {
	return Turn{
		Question:   question,
		Evidence:   EvidenceRecord{Text: context, Source: url, Score: score},
		Completion: completion,
		Answer:     ExtractAnswer(completion),
		Answered:   true,
	}
}

func TestRenderTranscriptOpenBlock(t *testing.T) {
	turns := []Turn{{
		Question: "What is Go?",
		Evidence: EvidenceRecord{Text: "Go is a programming language.", Source: "https://go.dev", Score: 0.92},
	}}
	got := RenderTranscript(turns)
	want := "[START]\n" +
		"User Input: What is Go?\n" +
		"Context: Go is a programming language.\n" +
		"Context URL: https://go.dev\n" +
		"Context Score: 0.92"
	if got != want {
		t.Fatalf("open block mismatch:\n got: %q\nwant: %q", got, want)
	}
	if strings.Contains(got, "[END]") {
		t.Fatalf("in-flight turn must not be closed")
	}
}

func TestRenderTranscriptCompletedBlockReplaysCompletion(t *testing.T) {
	completion := "Assistant Thought: This context has sufficient information to answer the question.\nAssistant Response: Go is a programming language."
	turns := []Turn{answeredTurn("What is Go?", "Go is a programming language.", "https://go.dev", 0.92, completion)}
	got := RenderTranscript(turns)
	if !strings.Contains(got, completion) {
		t.Fatalf("completed block must replay the raw completion verbatim:\n%s", got)
	}
	if !strings.HasSuffix(got, "[END]") {
		t.Fatalf("completed block must close with the end delimiter:\n%s", got)
	}
}

func TestRenderTranscriptSentinelScoreZero(t *testing.T) {
	turns := []Turn{{
		Question: "Who won the 1950 world cup?",
		Evidence: EvidenceRecord{Text: SentinelText, Source: SentinelSource, Score: 0},
	}}
	got := RenderTranscript(turns)
	if !strings.Contains(got, "Context: NO CONTEXT FOUND\nContext URL: NONE\nContext Score: 0") {
		t.Fatalf("sentinel block malformed:\n%s", got)
	}
}

// Completing a turn must only append to its block, never rewrite what was
// already rendered while it was open.
func TestRenderTranscriptPrefixStable(t *testing.T) {
	open := Turn{
		Question: "What is Go?",
		Evidence: EvidenceRecord{Text: "Go is a programming language.", Source: "https://go.dev", Score: 0.92},
	}
	before := RenderTranscript([]Turn{open})

	done := open
	done.Completion = "Assistant Thought: ok.\nAssistant Response: Go is a programming language."
	done.Answered = true
	after := RenderTranscript([]Turn{done})

	if !strings.HasPrefix(after, before) {
		t.Fatalf("completed transcript must extend the open one:\nbefore: %q\nafter: %q", before, after)
	}
}

func TestBuildPrompt(t *testing.T) {
	today := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	prompt := BuildPrompt(today, nil)
	if !strings.Contains(prompt, "Today is 2026-09-01") {
		t.Fatalf("prompt missing date: %s", prompt[:80])
	}
	if !strings.Contains(prompt, "Begin:") {
		t.Fatalf("prompt missing few-shot footer")
	}
	if strings.Count(prompt, "[START]") != 4 {
		t.Fatalf("expected 4 few-shot blocks with an empty transcript, got %d", strings.Count(prompt, "[START]"))
	}
}

func TestExtractAnswer(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "thought then response",
			raw:  "Assistant Thought: sufficient.\nAssistant Response: Go is a programming language.",
			want: " Go is a programming language.",
		},
		{
			name: "marker absent returns raw",
			raw:  "no marker here",
			want: "no marker here",
		},
		{
			name: "last occurrence wins",
			raw:  "Assistant Response: first\nAssistant Response: second",
			want: " second",
		},
		{
			name: "empty remainder",
			raw:  "Assistant Response:",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractAnswer(tc.raw); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

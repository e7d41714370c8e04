package convo

import (
	"fmt"
	"strings"
	"time"
)

// FinalAnswerToken separates the model's reasoning line from its final
// answer inside a completed block.
const FinalAnswerToken = "Assistant Response:"

// StopSequence closes a transcript block; generation must halt before
// emitting it.
const StopSequence = "[END]"

// promptTemplate wraps the rendered transcript with the current date and a
// fixed set of few-shot blocks that establish the block grammar and the
// decline-to-answer behaviour on sentinel evidence.
const promptTemplate = `Today is %s and you can retrieve information from a database. Respond to the user's input as best as you can.

Here is an example of the conversation format:

[START]
User Input: the input question you must answer
Context: retrieved context from the database
Context URL: context url
Context Score : a score from 0 - 1 of how strong the information is a match
Assistant Thought: This context has sufficient information to answer the question.
Assistant Response: your final answer to the original input question which could be I don't have sufficient information to answer the question.
[END]
[START]
User Input: another input question you must answer
Context: more retrieved context from the database
Context URL: context url
Context Score : another score from 0 - 1 of how strong the information is a match
Assistant Thought: This context does not have sufficient information to answer the question.
Assistant Response: your final answer to the second input question which could be I don't have sufficient information to answer the question.
[END]
[START]
User Input: another input question you must answer
Context: more retrieved context from the database
Context URL: context url
Context Score : another score from 0 - 1 of how strong the information is a match
Assistant Thought: A previous piece of context has the answer to this question
Assistant Response: your final answer to the second input question which could be I don't have sufficient information to answer the question.
[END]
[START]
User Input: another input question you must answer
Context: NO CONTEXT FOUND
Context URL: NONE
Context Score : 0
Assistant Thought: We either could not find something or we don't need to look something up
Assistant Response: I'm sorry I don't know.
[END]

Begin:

%s
`

// RenderTranscript renders the full conversation-so-far as one delimited
// block per turn, in turn order. Completed turns carry the model-authored
// completion and a closing delimiter; the in-flight turn is left open so the
// model continues writing from that point. The result is trimmed of leading
// and trailing whitespace.
func RenderTranscript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "[START]\nUser Input: %s\n", t.Question)
		fmt.Fprintf(&b, "Context: %s\nContext URL: %s\nContext Score: %v\n", t.Evidence.Text, t.Evidence.Source, t.Evidence.Score)
		if t.Answered {
			b.WriteString(t.Completion)
			b.WriteString("\n[END]\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// BuildPrompt embeds the rendered transcript into the instructional prompt
// template along with today's date.
func BuildPrompt(today time.Time, turns []Turn) string {
	return fmt.Sprintf(promptTemplate, today.Format("2006-01-02"), RenderTranscript(turns))
}

// ExtractAnswer isolates the final answer from a raw completion: everything
// after the last occurrence of FinalAnswerToken, or the completion unchanged
// when the marker is absent. Taking the last occurrence guards against the
// marker appearing inside echoed example text earlier in the completion.
func ExtractAnswer(raw string) string {
	idx := strings.LastIndex(raw, FinalAnswerToken)
	if idx == -1 {
		return raw
	}
	return raw[idx+len(FinalAnswerToken):]
}

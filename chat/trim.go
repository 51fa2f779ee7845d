package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// TrimToSentence cuts a token-capped raw answer back to the end of a
// complete sentence near its natural length. Sentences are runs of
// non-terminator characters followed by one or more of '.', '!', '?'.
// Each sentence is scored by its distance from the answer's midpoint,
//
//	|midpoint - (sentenceMidpoint + sentenceLength)|
//
// and the earliest minimum wins. The metric offsets the sentence by its
// own midpoint rather than its position in the text; that quirk is
// load-bearing for which sentence gets chosen, so it stays. Answers
// without terminal punctuation come back unchanged.
func TrimToSentence(raw string) string {
	sentences := sentenceRe.FindAllString(raw, -1)
	if len(sentences) == 0 {
		return raw
	}

	midpoint := utf8.RuneCountInString(raw) / 2
	nearest := ""
	minDistance := -1
	for _, sentence := range sentences {
		length := utf8.RuneCountInString(sentence)
		sentenceMidpoint := (length - 1) / 2
		distance := midpoint - (sentenceMidpoint + length)
		if distance < 0 {
			distance = -distance
		}
		if minDistance < 0 || distance < minDistance {
			nearest = sentence
			minDistance = distance
		}
	}

	end := strings.Index(raw, nearest) + len(nearest)
	return strings.TrimSpace(raw[:end])
}

package evaluate

import (
	"strings"
	"unicode"
)

// readabilityStats holds the counts feeding the Flesch formulas.
type readabilityStats struct {
	sentences int
	words     int
	syllables int
}

// fleschReadingEase computes the classic 0-100 reading-ease value. Higher is
// easier; 60-70 corresponds to roughly 8th-9th grade prose.
func (r readabilityStats) fleschReadingEase() float64 {
	if r.sentences == 0 || r.words == 0 {
		return 0
	}
	return 206.835 - 1.015*(float64(r.words)/float64(r.sentences)) - 84.6*(float64(r.syllables)/float64(r.words))
}

// fleschKincaidGrade computes the US school-grade equivalent.
func (r readabilityStats) fleschKincaidGrade() float64 {
	if r.sentences == 0 || r.words == 0 {
		return 0
	}
	return 0.39*(float64(r.words)/float64(r.sentences)) + 11.8*(float64(r.syllables)/float64(r.words)) - 15.59
}

func (r readabilityStats) avgSentenceLength() float64 {
	if r.sentences == 0 {
		return 0
	}
	return float64(r.words) / float64(r.sentences)
}

// analyzeText counts sentences, words and syllables in plain text.
func analyzeText(text string) readabilityStats {
	stats := readabilityStats{}

	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		if len(words) == 0 {
			continue
		}
		stats.sentences++
		stats.words += len(words)
		for _, word := range words {
			stats.syllables += countSyllables(word)
		}
	}

	return stats
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// countSyllables approximates syllables by counting vowel groups, with the
// usual silent-e adjustment. Every word counts as at least one syllable.
func countSyllables(word string) int {
	cleaned := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if cleaned == "" {
		return 0
	}

	count := 0
	previousWasVowel := false
	for _, r := range cleaned {
		vowel := isVowel(r)
		if vowel && !previousWasVowel {
			count++
		}
		previousWasVowel = vowel
	}

	if strings.HasSuffix(cleaned, "e") && !strings.HasSuffix(cleaned, "le") && count > 1 {
		count--
	}

	if count == 0 {
		count = 1
	}

	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Package readability scores generated text using the Flesch Reading Ease
// and Flesch-Kincaid Grade Level formulas.
package readability

import (
	"math"
	"strings"

	"inkwell/internal/models"
)

// wordsPerMinute is the baseline reading speed used for read-time estimates.
const wordsPerMinute = 200.0

// Compute derives content metrics from a piece of text. It is pure and
// deterministic: identical input always yields identical output. Empty input
// produces zero counts with the formulas' clamped degenerate values.
func Compute(text string) models.ContentMetrics {
	words := strings.Fields(text)
	wordCount := len(words)

	sentenceCount := countSentences(text)

	totalSyllables := 0
	for _, w := range words {
		totalSyllables += countSyllables(w)
	}

	avgSentenceLength := float64(wordCount) / float64(sentenceCount)
	avgSyllablesPerWord := 1.0
	if wordCount > 0 {
		avgSyllablesPerWord = float64(totalSyllables) / float64(wordCount)
	}

	score := 206.835 - 1.015*avgSentenceLength - 84.6*avgSyllablesPerWord
	grade := 0.39*avgSentenceLength + 11.8*avgSyllablesPerWord - 15.59

	return models.ContentMetrics{
		ReadabilityScore:  round1(clamp(score, 0, 100)),
		GradeLevel:        round1(clamp(grade, 1, 20)),
		WordCount:         wordCount,
		SentenceCount:     sentenceCount,
		AvgSentenceLength: round1(avgSentenceLength),
		ReadTimeMinutes:   round1(float64(wordCount) / wordsPerMinute),
	}
}

// countSentences splits on runs of '.', '!' and '?' and discards fragments
// that are empty or whitespace-only. Returns at least 1 so callers can divide
// by it safely.
func countSentences(text string) int {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	count := 0
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count
}

// countSyllables estimates the syllable count of a single word. The heuristic
// counts vowel-group onsets, drops a trailing silent "e" and compensates for
// consonant+"le" endings ("table", "little").
func countSyllables(word string) int {
	w := stripNonLetters(strings.ToLower(word))
	if len(w) <= 2 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(w, "e") && count > 1 {
		count--
	}
	if len(w) > 2 && strings.HasSuffix(w, "le") && !isVowel(rune(w[len(w)-3])) {
		count++
	}

	if count < 1 {
		return 1
	}
	return count
}

func stripNonLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

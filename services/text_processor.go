package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"shortsmith/models"
)

// TextProcessor splits a plain script into scene-sized narration and
// estimates word timings when no transcription is available
type TextProcessor struct {
	SceneDuration     float64 // target spoken seconds per scene
	AvgWordsPerMinute float64
}

// NewTextProcessor creates a new text processor
func NewTextProcessor(sceneDuration float64) *TextProcessor {
	return &TextProcessor{
		SceneDuration:     sceneDuration,
		AvgWordsPerMinute: 150.0,
	}
}

// SplitIntoScenes groups whole sentences into scenes of roughly
// SceneDuration spoken seconds. A sentence longer than the target becomes
// its own scene.
func (tp *TextProcessor) SplitIntoScenes(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	scenes := []string{}
	current := ""
	currentDuration := 0.0

	for _, sentence := range tp.splitIntoSentences(text) {
		sentenceDuration := tp.estimateDuration(sentence)

		if currentDuration > 0 && currentDuration+sentenceDuration > tp.SceneDuration {
			scenes = append(scenes, current)
			current = sentence
			currentDuration = sentenceDuration
			continue
		}

		if current != "" {
			current += " " + sentence
		} else {
			current = sentence
		}
		currentDuration += sentenceDuration
	}

	if current != "" {
		scenes = append(scenes, current)
	}

	return scenes
}

// EstimateWordTimings spreads the words of text across duration seconds,
// giving each word a share proportional to its length. Used as a caption
// fallback when transcription fails.
func (tp *TextProcessor) EstimateWordTimings(text string, duration float64) []models.Word {
	words := strings.Fields(text)
	if len(words) == 0 || duration <= 0 {
		return []models.Word{}
	}

	totalWeight := 0
	for _, w := range words {
		totalWeight += wordWeight(w)
	}

	timings := make([]models.Word, 0, len(words))
	cursor := 0.0
	for i, w := range words {
		end := cursor + duration*float64(wordWeight(w))/float64(totalWeight)
		if i == len(words)-1 {
			end = duration
		}
		timings = append(timings, models.Word{Text: w, Start: cursor, End: end})
		cursor = end
	}

	return timings
}

// wordWeight counts letters and digits, with a floor of one so bare
// punctuation still gets screen time
func wordWeight(w string) int {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// estimateDuration estimates how long it takes to speak the text
func (tp *TextProcessor) estimateDuration(text string) float64 {
	wordCount := tp.countWords(text)
	if wordCount == 0 {
		return 0.0
	}

	durationSeconds := float64(wordCount) / tp.AvgWordsPerMinute * 60.0

	// Add 10% buffer for natural pauses
	return durationSeconds * 1.1
}

// countWords counts the number of words in text
func (tp *TextProcessor) countWords(text string) int {
	return len(strings.Fields(text))
}

// splitIntoSentences splits text into individual sentences
func (tp *TextProcessor) splitIntoSentences(text string) []string {
	sentences := []string{}
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if !tp.isSentenceEnding(r) {
			continue
		}
		// Only split when followed by whitespace, to keep "3.5" and "e.g" intact
		next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
		if next == utf8.RuneError || unicode.IsSpace(next) {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

// isSentenceEnding checks if character is a sentence ending
func (tp *TextProcessor) isSentenceEnding(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tablemate/backoffice-backend/internal/logger"
)

// LanguageDetector resolves the source language of a text. Detection never
// fails: if the model is unavailable the detector falls back to a character
// range heuristic, and the worst case is the default language.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) string
}

const detectionFallbackLanguage = "en"

type languageDetector struct {
	log   *logger.Logger
	model ModelClient
}

func NewLanguageDetector(baseLog *logger.Logger, model ModelClient) LanguageDetector {
	return &languageDetector{
		log:   baseLog.With("service", "LanguageDetector"),
		model: model,
	}
}

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]{2,4})?$`)

func (d *languageDetector) Detect(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return detectionFallbackLanguage
	}

	prompt := fmt.Sprintf(
		"Identify the language of the following text. Respond with only the ISO 639-1 language code (for example: en, ar, ku, fr) and nothing else.\n\nText: %s",
		truncateForDetection(trimmed),
	)
	out, err := d.model.Complete(ctx, prompt, false)
	if err == nil {
		code := strings.ToLower(strings.TrimSpace(strings.Trim(out, "\"'`.")))
		if languageCodePattern.MatchString(code) {
			return code
		}
		d.log.Warn("Language detection returned an unusable code, falling back to heuristic", "raw", out)
	} else {
		d.log.Warn("Language detection model call failed, falling back to heuristic", "error", err)
	}

	return detectLanguageHeuristic(trimmed)
}

func truncateForDetection(text string) string {
	const maxRunes = 200
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

// Codepoints used by Sorani Kurdish but absent from standard Arabic.
var kurdishRunes = map[rune]bool{
	'ڕ': true, // ڕ
	'ڵ': true, // ڵ
	'ۆ': true, // ۆ
	'ێ': true, // ێ
	'ە': true, // ە
	'ڤ': true, // ڤ
}

// detectLanguageHeuristic classifies by script: Kurdish-specific letters win
// over the general Arabic block, anything else falls back to the default.
func detectLanguageHeuristic(text string) string {
	arabicCount := 0
	kurdishCount := 0
	total := 0
	for _, r := range text {
		switch {
		case kurdishRunes[r]:
			kurdishCount++
			total++
		case (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F) || (r >= 0x08A0 && r <= 0x08FF):
			arabicCount++
			total++
		case r > ' ':
			total++
		}
	}
	if total == 0 {
		return detectionFallbackLanguage
	}
	if kurdishCount > 0 {
		return "ku"
	}
	if arabicCount*2 >= total {
		return "ar"
	}
	return detectionFallbackLanguage
}

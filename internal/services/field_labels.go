package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Models occasionally echo the field label back in front of the translation
// ("Description: ..." or "[name] ...") despite the content-only instruction.
// The synonym table below drives the cleanup; adding a language means adding
// rows here, not touching control flow.

var fieldLabelSynonyms = map[string][]string{
	"en": {"name", "description", "address", "city", "state", "country", "title", "notes"},
	"ar": {"الاسم", "الوصف", "العنوان", "المدينة", "المحافظة", "الولاية", "البلد", "الدولة", "ملاحظات"},
	"ku": {"ناو", "وەسف", "ناونیشان", "شار", "پارێزگا", "وڵات", "تێبینی"},
	"fr": {"nom", "description", "adresse", "ville", "état", "pays", "titre", "remarques"},
	"tr": {"ad", "isim", "açıklama", "adres", "şehir", "eyalet", "ülke", "başlık", "notlar"},
}

var labelPatternTemplates = []string{
	`^\s*%s\s*[:：]\s*`,
	`^\s*\[\s*%s\s*\]\s*`,
}

// stripFieldLabel removes one leading "<label>: " or "[label] " prefix when
// the label matches the field name or a known synonym in English or any of
// the given languages.
func stripFieldLabel(text, fieldName string, languages []string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	candidates := labelCandidates(fieldName, languages)
	for _, candidate := range candidates {
		for _, tpl := range labelPatternTemplates {
			re, err := regexp.Compile(`(?i)` + fmt.Sprintf(tpl, regexp.QuoteMeta(candidate)))
			if err != nil {
				continue
			}
			if loc := re.FindStringIndex(trimmed); loc != nil {
				return strings.TrimSpace(trimmed[loc[1]:])
			}
		}
	}
	return trimmed
}

func labelCandidates(fieldName string, languages []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		lower := strings.ToLower(label)
		if seen[lower] {
			return
		}
		seen[lower] = true
		out = append(out, label)
	}

	add(fieldName)
	add(strings.ReplaceAll(fieldName, "_", " "))
	for _, label := range fieldLabelSynonyms["en"] {
		add(label)
	}
	for _, lang := range languages {
		for _, label := range fieldLabelSynonyms[strings.ToLower(strings.TrimSpace(lang))] {
			add(label)
		}
	}
	return out
}

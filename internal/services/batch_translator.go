package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tablemate/backoffice-backend/internal/logger"
)

// FieldText is one translatable field of an entity.
type FieldText struct {
	FieldName string `json:"field_name"`
	Text      string `json:"text"`
}

// BatchTranslator consolidates the fields of one entity into as few model
// calls as possible. Batch parsing failures fall back to per-field calls so a
// malformed model response never drops a field.
type BatchTranslator interface {
	// TranslateFields returns languageCode -> translatedText per field name,
	// preserving every input field. Empty texts map to an empty result, and
	// fields whose translation ultimately failed are returned with an empty
	// map rather than an error.
	TranslateFields(ctx context.Context, fields []FieldText, targetLanguages []string, sourceLanguage string) (map[string]map[string]string, error)
	// TranslateText translates a single text. Shares cache keys with the
	// batch path.
	TranslateText(ctx context.Context, text string, targetLanguages []string, sourceLanguage string) (map[string]string, error)
}

type batchTranslator struct {
	log   *logger.Logger
	model ModelClient
	cache *TranslationCache
}

func NewBatchTranslator(baseLog *logger.Logger, model ModelClient, cache *TranslationCache) BatchTranslator {
	return &batchTranslator{
		log:   baseLog.With("service", "BatchTranslator"),
		model: model,
		cache: cache,
	}
}

func (t *batchTranslator) TranslateText(ctx context.Context, text string, targetLanguages []string, sourceLanguage string) (map[string]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(targetLanguages) == 0 {
		return map[string]string{}, nil
	}

	key := CacheKey(trimmed, sourceLanguage, targetLanguages)
	if cached, ok := t.cache.Get(key); ok {
		return cached, nil
	}

	prompt := buildSingleTextPrompt(trimmed, sourceLanguage, targetLanguages)
	out, err := t.model.Complete(ctx, prompt, false)
	if err != nil {
		return nil, err
	}

	parsed, err := parseLanguageMap(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse translation response: %w", err)
	}
	result := t.cleanLanguageMap(parsed, "", sourceLanguage, targetLanguages)
	t.cache.Put(key, result)
	return result, nil
}

func (t *batchTranslator) TranslateFields(ctx context.Context, fields []FieldText, targetLanguages []string, sourceLanguage string) (map[string]map[string]string, error) {
	results := make(map[string]map[string]string, len(fields))
	if len(fields) == 0 || len(targetLanguages) == 0 {
		for _, f := range fields {
			results[f.FieldName] = map[string]string{}
		}
		return results, nil
	}

	// Empty texts are skipped outright; cached texts are served locally. Only
	// what remains goes to the model.
	var uncached []pendingField
	for _, f := range fields {
		trimmed := strings.TrimSpace(f.Text)
		if trimmed == "" {
			results[f.FieldName] = map[string]string{}
			continue
		}
		key := CacheKey(trimmed, sourceLanguage, targetLanguages)
		if cached, ok := t.cache.Get(key); ok {
			results[f.FieldName] = cached
			continue
		}
		uncached = append(uncached, pendingField{field: FieldText{FieldName: f.FieldName, Text: trimmed}, key: key})
	}
	if len(uncached) == 0 {
		return results, nil
	}

	if len(uncached) == 1 {
		p := uncached[0]
		translated, err := t.TranslateText(ctx, p.field.Text, targetLanguages, sourceLanguage)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.log.Warn("Single-field translation failed, field omitted", "field", p.field.FieldName, "error", err)
			results[p.field.FieldName] = map[string]string{}
			return results, nil
		}
		results[p.field.FieldName] = t.cleanLanguageMap(translated, p.field.FieldName, sourceLanguage, targetLanguages)
		return results, nil
	}

	batch, err := t.translateBatch(ctx, uncachedFields(uncached), targetLanguages, sourceLanguage)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.log.Warn("Batch translation failed, falling back to per-field calls", "fields", len(uncached), "error", err)
		for _, p := range uncached {
			translated, fErr := t.TranslateText(ctx, p.field.Text, targetLanguages, sourceLanguage)
			if fErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				t.log.Warn("Per-field fallback translation failed, field omitted", "field", p.field.FieldName, "error", fErr)
				results[p.field.FieldName] = map[string]string{}
				continue
			}
			results[p.field.FieldName] = t.cleanLanguageMap(translated, p.field.FieldName, sourceLanguage, targetLanguages)
		}
		return results, nil
	}

	for i, p := range uncached {
		perText := batch[i]
		if perText == nil {
			t.log.Warn("Batch response missing an index, field omitted", "field", p.field.FieldName, "index", i+1)
			results[p.field.FieldName] = map[string]string{}
			continue
		}
		cleaned := t.cleanLanguageMap(perText, p.field.FieldName, sourceLanguage, targetLanguages)
		t.cache.Put(p.key, cleaned)
		results[p.field.FieldName] = cleaned
	}
	return results, nil
}

type pendingField struct {
	field FieldText
	key   string
}

func uncachedFields(pendings []pendingField) []FieldText {
	out := make([]FieldText, 0, len(pendings))
	for _, p := range pendings {
		out = append(out, p.field)
	}
	return out
}

// translateBatch sends one consolidated prompt for all texts and returns the
// per-text language maps in input order.
func (t *batchTranslator) translateBatch(ctx context.Context, fields []FieldText, targetLanguages []string, sourceLanguage string) ([]map[string]string, error) {
	prompt := buildBatchPrompt(fields, sourceLanguage, targetLanguages)
	out, err := t.model.Complete(ctx, prompt, false)
	if err != nil {
		return nil, err
	}

	var parsed map[string]map[string]string
	if err := json.Unmarshal([]byte(extractJSONObject(out)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch translation response: %w", err)
	}

	results := make([]map[string]string, len(fields))
	for i := range fields {
		if m, ok := parsed[strconv.Itoa(i+1)]; ok {
			results[i] = m
		}
	}
	return results, nil
}

func (t *batchTranslator) cleanLanguageMap(in map[string]string, fieldName, sourceLanguage string, targetLanguages []string) map[string]string {
	out := make(map[string]string, len(in))
	for lang, text := range in {
		lang = strings.ToLower(strings.TrimSpace(lang))
		cleaned := stripFieldLabel(text, fieldName, append([]string{sourceLanguage}, targetLanguages...))
		if lang == "" || cleaned == "" {
			continue
		}
		out[lang] = cleaned
	}
	return out
}

func buildSingleTextPrompt(text, sourceLanguage string, targetLanguages []string) string {
	var b strings.Builder
	b.WriteString("Translate the following text")
	if sourceLanguage != "" {
		fmt.Fprintf(&b, " from %s", sourceLanguage)
	}
	fmt.Fprintf(&b, " into these languages: %s.\n", strings.Join(sortedCodes(targetLanguages), ", "))
	b.WriteString("Respond with only a JSON object mapping each language code to the translated text. ")
	b.WriteString("Translate the content only; never include field labels, headings, or commentary in the translations.\n\n")
	b.WriteString(text)
	return b.String()
}

func buildBatchPrompt(fields []FieldText, sourceLanguage string, targetLanguages []string) string {
	var b strings.Builder
	b.WriteString("Translate the numbered texts below")
	if sourceLanguage != "" {
		fmt.Fprintf(&b, " from %s", sourceLanguage)
	}
	fmt.Fprintf(&b, " into these languages: %s.\n", strings.Join(sortedCodes(targetLanguages), ", "))
	b.WriteString("Respond with only a JSON object keyed by each text's number. ")
	b.WriteString("Each value must be an object mapping language code to the translated text. ")
	b.WriteString("Translate the content only; never include field labels, numbering, or commentary in the translations.\n\n")
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.Text)
	}
	return b.String()
}

func sortedCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, strings.ToLower(strings.TrimSpace(c)))
	}
	sort.Strings(out)
	return out
}

func parseLanguageMap(raw string) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// extractJSONObject tolerates code fences and prose around the JSON body the
// model was asked for.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

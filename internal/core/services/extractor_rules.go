package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Base confidences per extraction rule.
const (
	confidenceNumericDate = 0.95
	confidenceNamedDate   = 0.9
	confidenceEntity      = 0.8
	confidenceCue         = 0.7
	confidenceDecision    = 0.75
	confidenceTask        = 0.7
	confidenceDocument    = 0.85
	confidenceLLMDefault  = 0.6
)

const maxSentenceKeyPoint = 240

const (
	monthsEN   = `January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`
	monthsFR   = `janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre`
	weekdays   = `Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|lundi|mardi|mercredi|jeudi|vendredi|samedi|dimanche`
	properName = `\p{Lu}[\p{L}'’\-]+(?:\s+\p{Lu}[\p{L}'’\-]+){0,2}`
	notLetter  = `(?:^|[^\p{L}])`
	notLetterE = `(?:[^\p{L}]|$)`
)

type rule struct {
	pattern    *regexp.Regexp
	kind       domain.KeyPointType
	confidence float64

	// group selects the submatch used as content; 0 is the whole match.
	group int
}

var dateRules = []rule{
	{pattern: regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), kind: domain.KeyPointDate, confidence: confidenceNumericDate},
	{pattern: regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.](?:\d{4}|\d{2})\b`), kind: domain.KeyPointDate, confidence: confidenceNumericDate},
	{pattern: regexp.MustCompile(`(?i)\b(?:` + weekdays + `),?\s+(?:the\s+)?\d{1,2}(?:st|nd|rd|th|er)?(?:\s+(?:` + monthsEN + `|` + monthsFR + `))?\b`), kind: domain.KeyPointDate, confidence: confidenceNamedDate},
	{pattern: regexp.MustCompile(`\b(?:` + monthsEN + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`), kind: domain.KeyPointDate, confidence: confidenceNamedDate},
	{pattern: regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:` + monthsEN + `)(?:,?\s+\d{4})?\b`), kind: domain.KeyPointDate, confidence: confidenceNamedDate},
	{pattern: regexp.MustCompile(`(?i)\b\d{1,2}(?:er)?\s+(?:` + monthsFR + `)(?:\s+\d{4})?` + notLetterE), kind: domain.KeyPointDate, confidence: confidenceNamedDate},
}

var sentenceRules = []rule{
	{
		pattern:    regexp.MustCompile(`(?i)` + notLetter + `(?:must|need to|needs to|have to|has to|should|deadline|due by|todo|to-do|action item|follow up|à faire|a faire|il faut|doit|doivent|devons|devez)` + notLetterE),
		kind:       domain.KeyPointTask,
		confidence: confidenceTask,
	},
	{
		pattern:    regexp.MustCompile(`(?i)` + notLetter + `(?:decided|agreed|approved|validated|confirmed|resolved|décidé|décidée|validé|validée|approuvé|approuvée|convenu|arrêté)` + notLetterE),
		kind:       domain.KeyPointDecision,
		confidence: confidenceDecision,
	},
	{
		pattern:    regexp.MustCompile(`(?i)` + notLetter + `(?:attached|attachment|enclosed|pièce jointe|pièces jointes|ci-joint|ci-jointe)` + notLetterE),
		kind:       domain.KeyPointDocument,
		confidence: confidenceDocument,
	},
}

var fileRule = rule{
	pattern:    regexp.MustCompile(`(?i)\b[\p{L}\d_\-]+\.(?:pdf|docx?|xlsx?|pptx?|eml|msg|txt|md|csv|odt|zip)\b`),
	kind:       domain.KeyPointDocument,
	confidence: confidenceDocument,
}

var personRules = []rule{
	{
		pattern:    regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Mme|Mlle|Me|M)\.?\s+` + properName),
		kind:       domain.KeyPointPerson,
		confidence: confidenceCue,
	},
	{
		pattern:    regexp.MustCompile(`\b(?:[Ww]ith|[Bb]y|[Ff]rom|[Aa]vec|[Pp]ar|[Dd]e la part de)\s+(` + properName + `)`),
		kind:       domain.KeyPointPerson,
		confidence: confidenceCue,
		group:      1,
	},
}

var locationRules = []rule{
	{
		pattern:    regexp.MustCompile(`\b(?:[Ii]n|[Aa]t|[Ee]n)\s+(` + properName + `)`),
		kind:       domain.KeyPointLocation,
		confidence: confidenceCue,
		group:      1,
	},
	{
		pattern:    regexp.MustCompile(`(?:^|\s)[Àà]\s+(` + properName + `)`),
		kind:       domain.KeyPointLocation,
		confidence: confidenceCue,
		group:      1,
	},
}

// notNames are capitalised words that follow a person or place cue
// without naming one.
var notNames = func() map[string]struct{} {
	words := strings.Split(strings.ToLower(monthsEN+"|"+monthsFR+"|"+weekdays), "|")
	words = append(words,
		"the", "a", "an", "this", "that", "these", "our", "your", "my", "his", "her", "their",
		"order", "total", "addition", "case", "fact", "general", "particular", "summary",
		"le", "la", "les", "un", "une", "ce", "cette", "notre", "votre", "q1", "q2", "q3", "q4",
	)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// cleanName drops trailing words that cannot be part of a name and
// rejects cue matches that start with a common capitalised word.
func cleanName(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 0 {
		if _, stop := notNames[strings.ToLower(strings.Trim(fields[len(fields)-1], "'’-"))]; !stop {
			break
		}
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return ""
	}
	if _, stop := notNames[strings.ToLower(fields[0])]; stop {
		return ""
	}
	return strings.Join(fields, " ")
}

// applyRules runs every rule over one sentence in a fixed order. Task,
// decision and attachment rules keep the whole sentence as content.
func applyRules(sentence string, emit func(kind domain.KeyPointType, content string, confidence float64)) {
	for _, r := range dateRules {
		for _, m := range r.pattern.FindAllString(sentence, -1) {
			emit(r.kind, strings.TrimSpace(strings.TrimRight(m, " ,")), r.confidence)
		}
	}

	for _, r := range personRules {
		for _, m := range r.pattern.FindAllStringSubmatch(sentence, -1) {
			if name := cleanName(m[r.group]); name != "" && hasLowerLetter(name) {
				emit(r.kind, name, r.confidence)
			}
		}
	}

	for _, r := range locationRules {
		for _, m := range r.pattern.FindAllStringSubmatch(sentence, -1) {
			if place := cleanName(m[r.group]); place != "" && hasLowerLetter(place) {
				emit(r.kind, place, r.confidence)
			}
		}
	}

	for _, m := range fileRule.pattern.FindAllString(sentence, -1) {
		emit(fileRule.kind, m, fileRule.confidence)
	}

	for _, r := range sentenceRules {
		if r.pattern.MatchString(sentence) {
			emit(r.kind, trimSentence(sentence), r.confidence)
		}
	}
}

// hasLowerLetter rejects all-caps acronyms picked up as names.
func hasLowerLetter(s string) bool {
	return strings.ToUpper(s) != s
}

func trimSentence(s string) string {
	s = strings.TrimSpace(strings.TrimLeft(s, "-*•·> \t"))
	if len([]rune(s)) > maxSentenceKeyPoint {
		s = string([]rune(s)[:maxSentenceKeyPoint-1]) + "…"
	}
	return s
}

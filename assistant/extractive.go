package assistant

import (
	"context"
	"strings"
	"unicode"
)

const ClinicalContext = `Clinical medicine is the study and practice of diagnosing and treating patients at the bedside.
A thorough history and physical examination establish most diagnoses before any investigation is ordered.
Hypertension is defined as a sustained blood pressure of 140/90 mmHg or higher on repeated measurements.
Type 2 diabetes mellitus is characterised by insulin resistance and relative insulin deficiency.
Iron deficiency anemia presents with a microcytic hypochromic blood film and low serum ferritin.
Myocardial infarction classically presents with crushing central chest pain radiating to the left arm or jaw.
Sepsis is life threatening organ dysfunction caused by a dysregulated host response to infection.
Beta blockers reduce heart rate and myocardial oxygen demand and are first line for stable angina.
Penicillin acts by inhibiting bacterial cell wall synthesis through binding of penicillin binding proteins.
Asthma is a chronic inflammatory airway disease with reversible airflow obstruction and wheeze.
Pneumonia commonly presents with fever, productive cough and focal crackles on auscultation.
Pre-eclampsia is new onset hypertension after twenty weeks of gestation with proteinuria or organ dysfunction.
Vaccination programmes are the most cost effective intervention in community and public health.`

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {}, "of": {}, "in": {},
	"on": {}, "to": {}, "for": {}, "and": {}, "or": {}, "with": {}, "by": {}, "at": {}, "as": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "why": {}, "when": {}, "does": {}, "do": {},
	"it": {}, "its": {}, "be": {}, "can": {}, "i": {}, "me": {}, "my": {}, "you": {}, "about": {},
	"tell": {}, "explain": {}, "define": {}, "any": {}, "this": {}, "that": {}, "from": {},
}

var placeholderAnswers = map[string]struct{}{
	"[cls]": {}, "[sep]": {}, "unknown": {}, "n/a": {}, "none": {}, "": {},
}

// Extractive picks the context sentence that shares the most keywords with the prompt.
type Extractive struct {
	sentences []string
}

func NewExtractive(text string) *Extractive {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			sentences = append(sentences, s)
		}
	}
	return &Extractive{sentences: sentences}
}

func (e *Extractive) Name() string { return "extractive" }

func (e *Extractive) TryAnswer(_ context.Context, q Query) (*Answer, error) {
	keywords := keywordSet(q.Prompt)
	if len(keywords) == 0 {
		return nil, nil
	}
	best, bestScore := "", 0
	for _, s := range e.sentences {
		score := 0
		for w := range keywordSet(s) {
			if _, ok := keywords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore == 0 || !acceptable(best, q.Prompt) {
		return nil, nil
	}
	return &Answer{Text: best, Source: e.Name()}, nil
}

// acceptable rejects short, placeholder, mostly non-alphabetic or echoed answers.
func acceptable(answer, prompt string) bool {
	answer = strings.TrimSpace(answer)
	if _, ok := placeholderAnswers[strings.ToLower(answer)]; ok {
		return false
	}
	if len(answer) < 15 {
		return false
	}
	words := strings.Fields(answer)
	if len(words) < 3 {
		return false
	}
	alpha := 0
	for _, w := range words {
		if strings.IndexFunc(w, unicode.IsLetter) >= 0 {
			alpha++
		}
	}
	if alpha*2 <= len(words) {
		return false
	}
	return normalize(answer) != normalize(prompt)
}

func normalize(s string) string {
	return strings.Join(tokens(s), " ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func keywordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range tokens(s) {
		if _, stop := stopwords[t]; stop || len(t) < 3 {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// QuestionKind classifies a query by its interrogative word.
type QuestionKind string

const (
	KindWhat    QuestionKind = "what"
	KindWho     QuestionKind = "who"
	KindWhen    QuestionKind = "when"
	KindWhere   QuestionKind = "where"
	KindWhy     QuestionKind = "why"
	KindHow     QuestionKind = "how"
	KindWhich   QuestionKind = "which"
	KindGeneral QuestionKind = "general"
)

// DetectQuestionKind reads the interrogative from the query's leading token.
func DetectQuestionKind(query string) QuestionKind {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(fields) == 0 {
		return KindGeneral
	}
	switch strings.Trim(fields[0], ".,;:!?'\"") {
	case "what", "whats", "what's":
		return KindWhat
	case "who", "whos", "who's", "whom":
		return KindWho
	case "when":
		return KindWhen
	case "where", "wheres", "where's":
		return KindWhere
	case "why":
		return KindWhy
	case "how":
		return KindHow
	case "which":
		return KindWhich
	default:
		return KindGeneral
	}
}

var (
	personPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\babout\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
		regexp.MustCompile(`(?i)\bwho\s+is\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)'s\b`),
	}
	yearRegex       = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)
	quotedRegex     = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	terminatorRegex = regexp.MustCompile(`[.!?]+`)
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december",
}

// DetectPersonName spots queries about a specific named person, returning
// the name, or "" when the query is not person-shaped.
func DetectPersonName(query string) string {
	for _, re := range personPatterns {
		m := re.FindStringSubmatch(query)
		if len(m) < 2 {
			continue
		}
		name := strings.TrimSpace(m[1])
		// Submatches are case-insensitive for the lead-in phrase only;
		// the name itself must be capitalized to count.
		if name != "" && unicode.IsUpper(rune(name[0])) {
			return name
		}
	}
	return ""
}

// ScoredSentence is one extracted sentence with its relevance and its
// position within the chunk's sentence sequence. Transient.
type ScoredSentence struct {
	Text       string
	Score      float64
	Position   int
	ChunkID    string
	DocumentID string
	DocTitle   string
}

// SentenceExtractor isolates the sentences of a chunk most relevant to a
// query, expanding with neighbor sentences for readability.
type SentenceExtractor struct {
	cfg EngineConfig
}

func NewSentenceExtractor(cfg EngineConfig) *SentenceExtractor {
	return &SentenceExtractor{cfg: cfg}
}

// Extract returns at most MaxSentencesPerChunk sentences from the chunk,
// ordered by original position to preserve narrative flow. A person filter,
// when set, reduces the chunk to sentences mentioning that person first; a
// chunk with no mention is skipped entirely (nil result).
func (e *SentenceExtractor) Extract(sc ScoredChunk, query string, terms []string, kind QuestionKind, person string) []ScoredSentence {
	sentences := segmentSentences(sc.Chunk.Content)
	if len(sentences) == 0 {
		return nil
	}

	eligible := sentences
	if person != "" {
		eligible = filterByPerson(sentences, person)
		if len(eligible) == 0 {
			return nil
		}
	}

	loweredQuery := strings.ToLower(strings.TrimSpace(query))
	entities := keyEntities(query, terms)

	var scored []ScoredSentence
	for _, sent := range eligible {
		score := e.scoreSentence(sent.text, loweredQuery, terms, entities, kind)
		if score < e.cfg.MinSentenceScore {
			continue
		}
		scored = append(scored, ScoredSentence{
			Text:       sent.text,
			Score:      score,
			Position:   sent.position,
			ChunkID:    sc.Chunk.ChunkID,
			DocumentID: sc.DocumentID,
			DocTitle:   sc.DocTitle,
		})
	}
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// Context expansion: neighbors of the top scorers keep the answer
	// readable; lower scorers backfill up to the per-chunk cap.
	picked := make(map[int]ScoredSentence)
	expandable := 3
	if len(scored) < expandable {
		expandable = len(scored)
	}
	for i := 0; i < expandable; i++ {
		picked[scored[i].Position] = scored[i]
	}
	for i := 0; i < expandable; i++ {
		s := scored[i]
		for _, npos := range []int{s.Position - 1, s.Position + 1} {
			if _, ok := picked[npos]; ok || npos < 0 || npos >= len(sentences) {
				continue
			}
			if len(picked) >= e.cfg.MaxSentencesPerChunk {
				break
			}
			neighbor := sentences[npos].text
			if len(neighbor) > e.cfg.NeighborCap {
				cut := e.cfg.NeighborCap
				if sp := strings.LastIndexByte(neighbor[:cut], ' '); sp > 0 {
					cut = sp
				} else {
					for cut > 0 && !utf8.RuneStart(neighbor[cut]) {
						cut--
					}
				}
				neighbor = strings.TrimRight(neighbor[:cut], " ")
			}
			picked[npos] = ScoredSentence{
				Text:       neighbor,
				Score:      s.Score / 2,
				Position:   npos,
				ChunkID:    sc.Chunk.ChunkID,
				DocumentID: sc.DocumentID,
				DocTitle:   sc.DocTitle,
			}
		}
	}
	for i := expandable; i < len(scored) && len(picked) < e.cfg.MaxSentencesPerChunk; i++ {
		if _, ok := picked[scored[i].Position]; !ok {
			picked[scored[i].Position] = scored[i]
		}
	}

	out := make([]ScoredSentence, 0, len(picked))
	for _, s := range picked {
		out = append(out, s)
	}
	// Reading order, not score order
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if len(out) > e.cfg.MaxSentencesPerChunk {
		out = out[:e.cfg.MaxSentencesPerChunk]
	}
	return out
}

// scoreSentence sums the per-sentence relevance signals.
func (e *SentenceExtractor) scoreSentence(sentence, loweredQuery string, terms, entities []string, kind QuestionKind) float64 {
	lowered := strings.ToLower(sentence)
	var score float64

	if loweredQuery != "" && strings.Contains(lowered, loweredQuery) {
		score += 200
	}

	words := tokenizeWords(lowered)
	matched := 0
	repeats := 0
	for _, term := range terms {
		count := words[term]
		if count == 0 {
			continue
		}
		matched++
		repeats += count - 1
	}
	if len(terms) > 0 {
		ratio := float64(matched) / float64(len(terms))
		score += 30*float64(matched) + 50*ratio
	}
	score += 5 * float64(repeats)

	if len(entities) > 0 {
		entityMatched := 0
		for _, entity := range entities {
			if strings.Contains(lowered, strings.ToLower(entity)) {
				entityMatched++
			}
		}
		score += 60 * float64(entityMatched) / float64(len(entities))
	}

	if hasKindCue(lowered, kind) {
		score += 25
	}

	return score
}

// hasKindCue checks for lexical cues matching the query's interrogative
// kind, e.g. a year or month name for a "when" query.
func hasKindCue(lowered string, kind QuestionKind) bool {
	containsAny := func(cues ...string) bool {
		for _, cue := range cues {
			if strings.Contains(lowered, cue) {
				return true
			}
		}
		return false
	}

	switch kind {
	case KindWhat, KindWhich:
		return containsAny(" is ", " are ", " refers", " means", " defined", " consists")
	case KindWho:
		return containsAny(" is ", " was ", " president", " founder", " leader", " member", " treasurer", " secretary")
	case KindWhen:
		if yearRegex.MatchString(lowered) {
			return true
		}
		return containsAny(monthNames...)
	case KindWhere:
		return containsAny(" in ", " at ", " located", " near ", " based ")
	case KindWhy:
		return containsAny("because", " due to ", " since ", " reason", " so that")
	case KindHow:
		return containsAny(" by ", " through ", " using ", " steps", " process", " first", " then ")
	default:
		return false
	}
}

// keyEntities pulls a broader entity set from the query: capitalized
// tokens, quoted phrases, and the retained non-stop-word terms.
func keyEntities(query string, terms []string) []string {
	seen := make(map[string]bool)
	var entities []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, s)
	}

	for _, m := range quotedRegex.FindAllStringSubmatch(query, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}
	for i, tok := range strings.Fields(query) {
		tok = strings.Trim(tok, ".,;:!?()\"'")
		// A capitalized token mid-query is likely a proper noun
		if i > 0 && tok != "" && unicode.IsUpper(rune(tok[0])) {
			add(tok)
		}
	}
	for _, term := range terms {
		if len(term) > 3 && !stopWords[term] {
			add(term)
		}
	}
	return entities
}

type positionedSentence struct {
	text     string
	position int
}

// segmentSentences splits chunk text on sentence-terminator runs. Fragments
// under 10 characters or without letters are noise and dropped; sentences
// keep their original position index so neighbors can be fetched.
func segmentSentences(text string) []positionedSentence {
	bounds := terminatorRegex.FindAllStringIndex(text, -1)

	var raw []string
	prev := 0
	for _, b := range bounds {
		raw = append(raw, text[prev:b[1]])
		prev = b[1]
	}
	if prev < len(text) {
		raw = append(raw, text[prev:])
	}

	var out []positionedSentence
	for _, fragment := range raw {
		fragment = strings.TrimSpace(strings.ReplaceAll(fragment, "\n", " "))
		if len(fragment) < 10 || !containsLetter(fragment) {
			continue
		}
		if !strings.ContainsAny(fragment[len(fragment)-1:], ".!?") {
			fragment += "."
		}
		out = append(out, positionedSentence{text: fragment, position: len(out)})
	}
	return out
}

// filterByPerson keeps sentences mentioning the person by full name, name
// component, possessive form, or a referring pronoun immediately after a
// mention.
func filterByPerson(sentences []positionedSentence, person string) []positionedSentence {
	lowered := strings.ToLower(person)
	parts := strings.Fields(lowered)

	mentions := func(sent string) bool {
		ls := strings.ToLower(sent)
		if strings.Contains(ls, lowered) || strings.Contains(ls, lowered+"'s") {
			return true
		}
		words := tokenizeWords(ls)
		for _, part := range parts {
			if words[part] > 0 {
				return true
			}
		}
		return false
	}

	pronouns := []string{"he ", "she ", "they ", "his ", "her ", "their "}
	startsWithPronoun := func(sent string) bool {
		ls := strings.ToLower(sent)
		for _, p := range pronouns {
			if strings.HasPrefix(ls, p) {
				return true
			}
		}
		return false
	}

	var out []positionedSentence
	prevMentioned := false
	for _, sent := range sentences {
		switch {
		case mentions(sent.text):
			out = append(out, sent)
			prevMentioned = true
		case prevMentioned && startsWithPronoun(sent.text):
			out = append(out, sent)
			// A pronoun sentence extends the mention for its successor
		default:
			prevMentioned = false
		}
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

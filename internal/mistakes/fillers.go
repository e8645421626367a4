package mistakes

import (
	"strings"

	"timeback/internal/language"
	"timeback/internal/transcript"
)

// Tier ranks how context-independent a filler is. Tier 1 words are fillers
// almost everywhere; tier 3 words are usually meaningful.
type Tier int

const (
	TierNone Tier = iota
	Tier1
	Tier2
	Tier3
)

// DefaultLanguage is used for unknown or empty language codes.
const DefaultLanguage = "en"

// exception suppresses a tier 2 or 3 word in a given neighbourhood.
type exception struct {
	precededBy map[string]struct{}
	followedBy map[string]struct{}
}

type languageTable struct {
	tier1, tier2, tier3 []string
	phrases             []string
	// repeatSkip words legitimately appear twice in a row ("had had").
	repeatSkip []string
	// phraseSkip phrases are commonly repeated on purpose ("I think... I think").
	phraseSkip []string
	// shortWords are real words that look like stutter fragments.
	shortWords []string
	// corrections signal that the speaker is revising what they just said.
	corrections []string
	exceptions  map[string]exceptionSpec
}

type exceptionSpec struct {
	precededBy []string
	followedBy []string
}

var demonstratives = []string{"this", "that", "these", "those", "it", "him", "her", "them", "me", "you", "us"}

var tables = map[string]languageTable{
	"en": {
		tier1:      []string{"um", "umm", "uh", "uhh", "uhm", "erm", "er", "ah", "ahh", "hmm", "hm", "mm", "mmm"},
		tier2:      []string{"like", "so", "well", "basically", "actually", "literally", "right", "okay"},
		tier3:      []string{"just", "really", "totally", "anyway", "seriously", "obviously", "honestly"},
		phrases:    []string{"you know", "i mean", "kind of", "sort of", "you see", "or something", "and stuff"},
		repeatSkip: []string{"that", "had", "very", "no", "yeah", "bye", "ha", "really", "now", "well", "go", "is"},
		phraseSkip: []string{"i think", "thank you", "bye bye", "you know", "over and", "very very", "no no"},
		corrections: []string{"sorry", "mean", "rather", "wait", "actually", "no", "correction"},
		shortWords: []string{"a", "i", "an", "as", "at", "be", "by", "do", "go", "he", "if", "in", "is", "it", "me", "my", "no", "of", "on", "or", "so", "to", "up", "us", "we"},
		exceptions: map[string]exceptionSpec{
			"like": {
				precededBy: []string{"i", "you", "we", "they", "would", "i'd", "you'd", "we'd", "they'd", "don't", "didn't", "do", "does", "did", "really", "also", "looks", "look", "looked", "feels", "feel", "felt", "seems", "seem", "sounds", "sound", "just", "more", "much", "something", "nothing", "anything", "is", "was", "be"},
				followedBy: demonstratives,
			},
			"well":     {precededBy: []string{"as", "very", "pretty", "so", "really", "quite", "too", "do", "did", "does", "went", "go", "doing", "done"}},
			"right":    {precededBy: []string{"the", "turn", "all", "that's", "you're", "is", "was", "on", "to", "my", "your", "be"}},
			"so":       {precededBy: []string{"not", "is", "was", "and", "or", "do", "did", "think", "hope", "said"}, followedBy: []string{"much", "many", "far", "that"}},
			"actually": {followedBy: []string{"is", "was", "are", "were", "did", "do", "does"}},
			"just":     {followedBy: []string{"as", "like", "because"}},
		},
	},
	"es": {
		tier1:      []string{"eh", "ehh", "em", "emm", "mmm", "ah", "hum"},
		tier2:      []string{"este", "pues", "bueno", "osea"},
		tier3:      []string{"entonces", "digamos", "vale", "literalmente", "básicamente"},
		phrases:    []string{"o sea", "a ver", "es que", "no sé"},
		repeatSkip: []string{"no", "sí", "muy", "ya", "que"},
		phraseSkip: []string{"yo creo", "muchas gracias"},
		corrections: []string{"perdón", "digo", "mejor", "no", "espera"},
		shortWords: []string{"a", "y", "o", "e", "u", "de", "el", "en", "la", "lo", "me", "mi", "no", "se", "si", "su", "te", "tu", "un", "ya"},
		exceptions: map[string]exceptionSpec{
			"este":  {followedBy: []string{"es", "año", "mes", "tema", "video", "caso", "libro", "lugar"}},
			"bueno": {precededBy: []string{"muy", "es", "más", "lo", "un", "tan"}},
		},
	},
	"fr": {
		tier1:      []string{"euh", "heu", "hum", "hmm", "bah", "ben", "beh"},
		tier2:      []string{"bon", "genre", "quoi", "enfin", "voilà"},
		tier3:      []string{"alors", "donc", "franchement", "carrément"},
		phrases:    []string{"tu vois", "en fait", "du coup", "je veux dire", "tu sais"},
		repeatSkip: []string{"non", "oui", "très", "si", "vous", "nous"},
		phraseSkip: []string{"je pense", "merci beaucoup"},
		corrections: []string{"pardon", "plutôt", "non", "attends", "dire"},
		shortWords: []string{"a", "à", "y", "ce", "de", "du", "en", "et", "il", "je", "la", "le", "ma", "me", "ne", "on", "ou", "sa", "se", "si", "ta", "te", "tu", "un"},
		exceptions: map[string]exceptionSpec{
			"bon":   {precededBy: []string{"très", "un", "le", "c'est", "est", "si", "plus"}},
			"quoi":  {precededBy: []string{"de", "pour", "à", "sur", "avec", "en"}},
			"genre": {precededBy: []string{"le", "un", "ce", "du", "de", "quel"}},
		},
	},
	"de": {
		tier1:      []string{"äh", "ähm", "öhm", "öh", "hm", "hmm", "mh"},
		tier2:      []string{"also", "halt", "naja", "quasi"},
		tier3:      []string{"eigentlich", "irgendwie", "sozusagen", "genau", "eben"},
		phrases:    []string{"ich meine", "weißt du", "oder so", "und so"},
		repeatSkip: []string{"nein", "ja", "sehr", "die", "das"},
		phraseSkip: []string{"ich glaube", "vielen dank"},
		corrections: []string{"sorry", "nein", "besser", "meine", "moment"},
		shortWords: []string{"da", "du", "er", "es", "im", "in", "ja", "so", "um", "zu", "ob", "an", "am"},
		exceptions: map[string]exceptionSpec{
			"also": {followedBy: []string{"ist", "war", "wird", "sind"}},
		},
	},
}

// FillerTable classifies tokens for one language. Every lookup key is in
// transcript.Normalize form.
type FillerTable struct {
	Language   string
	tiers      map[string]Tier
	phrases    [][]string
	repeatSkip map[string]struct{}
	phraseSkip map[string]struct{}
	shortWords  map[string]struct{}
	corrections map[string]struct{}
	exceptions  map[string]exception
}

// NewFillerTable builds the table for lang (ISO code, name or tag; unknown
// languages use English). Extra words join tier 1; extra phrases join the
// phrase list.
func NewFillerTable(lang string, extraWords, extraPhrases []string) *FillerTable {
	code := language.OrDefault(lang, DefaultLanguage)
	src, ok := tables[code]
	if !ok {
		code = DefaultLanguage
		src = tables[code]
	}

	t := &FillerTable{
		Language:    code,
		tiers:       make(map[string]Tier),
		repeatSkip:  toSet(src.repeatSkip),
		phraseSkip:  toSet(src.phraseSkip),
		shortWords:  toSet(src.shortWords),
		corrections: toSet(src.corrections),
		exceptions:  make(map[string]exception, len(src.exceptions)),
	}
	for tier, words := range map[Tier][]string{Tier3: src.tier3, Tier2: src.tier2, Tier1: src.tier1} {
		for _, w := range words {
			t.setTier(w, tier)
		}
	}
	for word, spec := range src.exceptions {
		t.exceptions[transcript.Normalize(word)] = exception{
			precededBy: toSet(spec.precededBy),
			followedBy: toSet(spec.followedBy),
		}
	}
	for _, p := range src.phrases {
		t.addPhrase(p)
	}

	for _, w := range extraWords {
		if tokens := transcript.Split(w); len(tokens) == 1 {
			t.tiers[tokens[0]] = Tier1
		} else if len(tokens) > 1 {
			t.addPhrase(w)
		}
	}
	for _, p := range extraPhrases {
		t.addPhrase(p)
	}
	return t
}

// setTier keeps the strongest (lowest) tier when a word is listed twice.
func (t *FillerTable) setTier(word string, tier Tier) {
	key := transcript.Normalize(word)
	if key == "" {
		return
	}
	if cur, ok := t.tiers[key]; ok && cur <= tier {
		return
	}
	t.tiers[key] = tier
}

func (t *FillerTable) addPhrase(p string) {
	tokens := transcript.Split(p)
	if len(tokens) == 0 {
		return
	}
	if len(tokens) == 1 {
		t.tiers[tokens[0]] = Tier1
		return
	}
	key := strings.Join(tokens, " ")
	for _, existing := range t.phrases {
		if strings.Join(existing, " ") == key {
			return
		}
	}
	t.phrases = append(t.phrases, tokens)
}

// Tier returns the tier of a normalized token.
func (t *FillerTable) Tier(token string) Tier {
	return t.tiers[token]
}

// IsFiller reports whether a normalized token has any tier.
func (t *FillerTable) IsFiller(token string) bool {
	return t.tiers[token] != TierNone
}

// Phrases returns the multi-word filler phrases as token slices.
func (t *FillerTable) Phrases() [][]string {
	return t.phrases
}

// SkipRepeat reports whether an immediate repeat of token is normal speech.
func (t *FillerTable) SkipRepeat(token string) bool {
	_, ok := t.repeatSkip[token]
	return ok
}

// SkipPhraseRepeat reports whether a repeated phrase is normal speech.
func (t *FillerTable) SkipPhraseRepeat(tokens []string) bool {
	_, ok := t.phraseSkip[strings.Join(tokens, " ")]
	return ok
}

// ShortWord reports whether token is a real word that could look like a
// stutter fragment.
func (t *FillerTable) ShortWord(token string) bool {
	_, ok := t.shortWords[token]
	return ok
}

// Correction reports whether token marks a spoken self-correction.
func (t *FillerTable) Correction(token string) bool {
	_, ok := t.corrections[token]
	return ok
}

// Excepted reports whether the word at i is used meaningfully given its
// neighbours, e.g. "I like this".
func (t *FillerTable) Excepted(tokens []string, i int) bool {
	ex, ok := t.exceptions[tokens[i]]
	if !ok {
		return false
	}
	if i > 0 {
		if _, hit := ex.precededBy[tokens[i-1]]; hit {
			return true
		}
	}
	if i+1 < len(tokens) {
		if _, hit := ex.followedBy[tokens[i+1]]; hit {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if tokens := transcript.Split(w); len(tokens) > 0 {
			out[strings.Join(tokens, " ")] = struct{}{}
		}
	}
	return out
}

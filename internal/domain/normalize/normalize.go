// Package normalize implements the text cleaning pipeline applied to every
// inference input before feature encoding.
//
// The pipeline is an ordered sequence of pure transformations: lowercasing,
// stop-word removal, digit removal, URL removal, punctuation removal, and
// lemmatization. Normalize is total over strings and deterministic; the
// stop-word set and lemmatization dictionary are fixed at construction.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Arabic semicolon, deleted outright rather than replaced with a space.
const arabicSemicolon = '؛'

// asciiPunctuation mirrors the classic punctuation set; each occurrence is
// replaced by a space so joined tokens split cleanly.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// urlPattern matches http(s) URLs and bare www-prefixed hosts up to the next
// whitespace.
var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Lemmatizer reduces a single token to its dictionary lemma.
type Lemmatizer interface {
	Lemma(word string) string
}

// identityLemmatizer leaves tokens untouched. Used when no dictionary has
// been injected, e.g. in tests that pin their own lemma behavior.
type identityLemmatizer struct{}

func (identityLemmatizer) Lemma(word string) string { return word }

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLemmatizer sets the lemmatization dictionary.
func WithLemmatizer(l Lemmatizer) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.lemmatizer = l
		}
	}
}

// WithStopWords replaces the pinned English stop-word set.
func WithStopWords(words []string) Option {
	return func(n *Normalizer) {
		if len(words) == 0 {
			return
		}
		n.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			n.stopWords[w] = struct{}{}
		}
	}
}

// Normalizer cleans raw text for feature encoding. It holds only read-only
// resources, so a single instance may serve concurrent requests.
type Normalizer struct {
	stopWords  map[string]struct{}
	lemmatizer Lemmatizer
}

// New creates a Normalizer with the pinned English stop-word set and no
// lemmatization dictionary until one is injected.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		stopWords:  englishStopWords(),
		lemmatizer: identityLemmatizer{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize runs the full cleaning pipeline. Stage order matters: each stage
// consumes the previous stage's output, and URLs are stripped before
// punctuation handling would split them into unrecognizable fragments.
func (n *Normalizer) Normalize(raw string) string {
	text := lowerCase(raw)
	text = n.removeStopWords(text)
	text = removeDigits(text)
	text = removeURLs(text)
	text = removePunctuation(text)
	text = n.lemmatize(text)
	return text
}

// lowerCase lowercases tokenwise and rejoins with single spaces. Tokens are
// maximal runs of non-whitespace characters.
func lowerCase(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, " ")
}

// removeStopWords drops tokens that exact-match the stop-word set. Matching
// is case-sensitive against already-lowercased tokens.
func (n *Normalizer) removeStopWords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, ok := n.stopWords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// removeDigits deletes every decimal-digit character, character level rather
// than tokenwise, so "abc123def" becomes "abcdef".
func removeDigits(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, text)
}

// removeURLs deletes http(s) and www-prefixed substrings.
func removeURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// removePunctuation replaces ASCII punctuation with spaces, deletes the
// Arabic semicolon outright, then collapses whitespace runs and trims.
func removePunctuation(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == arabicSemicolon:
		case strings.ContainsRune(asciiPunctuation, r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// lemmatize reduces each token to its lemma and rejoins with single spaces.
func (n *Normalizer) lemmatize(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = n.lemmatizer.Lemma(w)
	}
	return strings.Join(words, " ")
}

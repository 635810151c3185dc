package normalize

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// golemLemmatizer backs the Lemmatizer interface with a golem dictionary.
type golemLemmatizer struct {
	inner *golem.Lemmatizer
}

func (g golemLemmatizer) Lemma(word string) string {
	return g.inner.Lemma(word)
}

// NewEnglishLemmatizer loads the pinned English lemmatization dictionary.
// The dictionary is embedded in the dependency, so this never touches the
// filesystem, but loading can still fail on a corrupt dictionary build.
func NewEnglishLemmatizer() (Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return golemLemmatizer{inner: l}, nil
}

package room

import (
	"strconv"
	"strings"
)

var (
	phraseAdjectives = []string{"red", "blue", "green", "happy", "brave", "calm", "eager", "fancy", "gentle", "jolly"}
	phraseNouns      = []string{"apple", "tiger", "sky", "river", "forest", "mountain", "ocean", "rain", "sun", "star"}
)

// maxPhraseAttempts bounds the search for an unused phrase before a numeric
// suffix is appended.
const maxPhraseAttempts = 32

// PhraseGenerator produces memorable adjective-adjective-noun session ids.
type PhraseGenerator struct {
	rand *lockedRand
}

// NewPhraseGenerator returns a generator seeded with seed.
func NewPhraseGenerator(seed int64) *PhraseGenerator {
	return &PhraseGenerator{rand: newLockedRand(seed)}
}

// Phrase returns one random phrase.
func (g *PhraseGenerator) Phrase() string {
	return strings.Join([]string{
		phraseAdjectives[g.rand.IntN(len(phraseAdjectives))],
		phraseAdjectives[g.rand.IntN(len(phraseAdjectives))],
		phraseNouns[g.rand.IntN(len(phraseNouns))],
	}, "-")
}

// Unused returns a phrase for which taken reports false.
func (g *PhraseGenerator) Unused(taken func(string) bool) string {
	var phrase string
	for i := 0; i < maxPhraseAttempts; i++ {
		phrase = g.Phrase()
		if taken == nil || !taken(phrase) {
			return phrase
		}
	}
	base := phrase
	for n := 2; ; n++ {
		phrase = base + "-" + strconv.Itoa(n)
		if !taken(phrase) {
			return phrase
		}
	}
}

package generation

import (
	"math/rand"
	"sync"
	"time"
)

// Curated writing tips surfaced alongside the editor.
var writingTips = []string{
	"Open with your strongest point; readers decide in the first paragraph whether to keep going.",
	"Prefer short sentences. Long ones hide the subject.",
	"Cut adverbs and let verbs carry the action.",
	"Read your draft aloud; awkward rhythm is easier to hear than to see.",
	"One idea per paragraph keeps arguments easy to follow.",
	"Replace abstract nouns with concrete examples.",
	"Write the conclusion first if you are stuck on the introduction.",
	"Active voice puts the actor in charge of the sentence.",
	"Leave a draft overnight before the final edit.",
	"Know your reader: vocabulary that impresses one audience loses another.",
	"Headings are promises; make sure the section delivers.",
	"End with a call to action or a question worth thinking about.",
}

// TipSource serves a shuffled selection of writing tips. The random source is
// injectable so selections are reproducible in tests.
type TipSource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	tips []string
}

// NewTipSource creates a tip source. A nil rng gets a time-seeded one.
func NewTipSource(rng *rand.Rand) *TipSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TipSource{
		rng:  rng,
		tips: writingTips,
	}
}

// Tips returns n distinct tips in random order. n is clamped to the size of
// the tip list; n <= 0 returns an empty slice.
func (t *TipSource) Tips(n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n > len(t.tips) {
		n = len(t.tips)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	shuffled := make([]string, len(t.tips))
	copy(shuffled, t.tips)
	t.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n]
}

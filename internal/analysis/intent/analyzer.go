package intent

import "strings"

// Label classifies what a visitor utterance is asking for.
type Label string

const (
	None      Label = "none"
	Greeting  Label = "greeting"
	Gratitude Label = "gratitude"
	Handoff   Label = "handoff"
)

// Decision is the outcome of scoring one utterance.
type Decision struct {
	Intent Label
	Score  int
}

// Keyword buckets cover the Hungarian-first audience of the product plus
// the English phrasings that showed up in real transcripts.
var keywordBuckets = map[Label][]string{
	Greeting: {
		"szia", "sziasztok", "hello", "helló", "hi", "hey", "jó napot", "jó reggelt",
		"üdv", "üdvözlöm", "good morning", "good afternoon",
	},
	Gratitude: {
		"köszönöm", "köszi", "kösz", "thanks", "thank you", "thx", "hálás",
	},
	Handoff: {
		"ember", "emberi", "élő ügyintéző", "ügyintéző", "kolléga", "operátor",
		"help", "segítség kell", "segítséget kérek", "human", "real person",
		"live agent", "operator", "beszélni valakivel", "panasz",
	},
}

// Handoff outranks the small-talk buckets when both match, so "help" inside
// a greeting still hands the session off.
var bucketWeight = map[Label]int{
	Greeting:  2,
	Gratitude: 2,
	Handoff:   3,
}

// labelPriority breaks score ties: earlier labels win, so a greeting
// that also thanks resolves the same way on every run.
var labelPriority = []Label{Handoff, Greeting, Gratitude}

// Analyze scores a visitor utterance and returns the dominant intent.
// An empty or unmatched utterance yields None with score 0.
func Analyze(utterance string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(utterance))
	if normalized == "" {
		return Decision{Intent: None, Score: 0}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if word == "" {
				continue
			}
			if strings.Contains(normalized, word) {
				scores[label] += bucketWeight[label]
			}
		}
	}

	bestLabel := None
	bestScore := 0
	for _, label := range labelPriority {
		if s := scores[label]; s > bestScore {
			bestScore = s
			bestLabel = label
		}
	}

	if bestScore == 0 {
		return Decision{Intent: None, Score: 0}
	}
	return Decision{Intent: bestLabel, Score: bestScore}
}

// WantsHuman reports whether the utterance explicitly asks for an operator.
func WantsHuman(utterance string) bool {
	return Analyze(utterance).Intent == Handoff
}

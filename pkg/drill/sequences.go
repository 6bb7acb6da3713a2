package drill

import "punchcoach-server/pkg/classifier"

// Sequence is a named, ordered combination for sequence mode
type Sequence struct {
	Name  string                  `json:"name"`
	Steps []classifier.PunchClass `json:"steps"`
}

// DefaultSequences is the shipped combo pool, roughly ordered by difficulty.
// Each drawn combo is 2-3 steps; drawing is uniform over the pool.
var DefaultSequences = []Sequence{
	{Name: "one-two", Steps: []classifier.PunchClass{classifier.ClassJab, classifier.ClassCross}},
	{Name: "double-up", Steps: []classifier.PunchClass{classifier.ClassJab, classifier.ClassJab}},
	{Name: "hook-line", Steps: []classifier.PunchClass{classifier.ClassJab, classifier.ClassCross, classifier.ClassLeftHook}},
	{Name: "rising-fire", Steps: []classifier.PunchClass{classifier.ClassCross, classifier.ClassLeftUppercut, classifier.ClassRightHook}},
	{Name: "body-snatcher", Steps: []classifier.PunchClass{classifier.ClassJab, classifier.ClassRightBody, classifier.ClassLeftHook}},
}

// sequenceCompletionBonus is the pre-multiplier award for finishing a combo
const sequenceCompletionBonus = 250

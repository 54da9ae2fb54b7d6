package face

// term is one emotion contribution to an action unit.
type term struct {
	emotion Emotion
	weight  float64
}

// mapping encodes the anatomical correspondence between emotions and action
// units. Coefficients are part of the behavioral contract. Chin raise, lip
// stretch and mouth stretch have no emotion terms; only direct action unit
// updates drive them.
var mapping = [ActionUnitCount][]term{
	InnerBrowRaise:   {{Sadness, 0.6}, {Fear, 0.4}, {Surprise, 0.5}},
	OuterBrowRaise:   {{Surprise, 0.8}},
	BrowLower:        {{Anger, 0.8}},
	UpperLidRaise:    {{Fear, 0.7}, {Surprise, 1.0}},
	CheekRaise:       {{Happiness, 0.5}},
	LidTighten:       {{Anger, 0.5}},
	NoseWrinkle:      {{Anger, 0.3}, {Disgust, 0.8}},
	UpperLipRaise:    {{Disgust, 0.5}},
	LipCornerPull:    {{Happiness, 1.0}},
	LipCornerDepress: {{Sadness, 0.7}, {Anger, 0.3}},
	LipsPart:         {{Surprise, 0.3}},
	JawDrop:          {{Surprise, 0.5}},
}

// MapEmotions converts an emotion vector into action unit activations as a
// fixed weighted sum. The result is not clamped.
func MapEmotions(e EmotionVector) Vector {
	var v Vector
	for au, terms := range mapping {
		var sum float64
		for _, t := range terms {
			sum += t.weight * e[t.emotion]
		}
		v[au] = sum
	}
	return v
}

// Coefficient returns the weight of emotion e in action unit au, zero when e
// does not contribute.
func Coefficient(au ActionUnit, e Emotion) float64 {
	if !au.IsActionUnit() {
		return 0
	}
	for _, t := range mapping[au] {
		if t.emotion == e {
			return t.weight
		}
	}
	return 0
}

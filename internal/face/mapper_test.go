package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEmotionsNeutral(t *testing.T) {
	assert.True(t, MapEmotions(EmotionVector{}).IsZero())
}

func TestMapEmotionsDocumentedCoefficients(t *testing.T) {
	var e EmotionVector
	e[Happiness] = 0.9
	e[Sadness] = 0.5
	e[Anger] = 0.4
	e[Fear] = 0.3
	e[Surprise] = 0.2
	e[Disgust] = 0.1

	v := MapEmotions(e)

	assert.InDelta(t, 0.8*0.4, v.Get(BrowLower), 1e-12)
	assert.InDelta(t, 0.6*0.5+0.4*0.3+0.5*0.2, v.Get(InnerBrowRaise), 1e-12)
	assert.InDelta(t, 0.5*0.2, v.Get(JawDrop), 1e-12)
	assert.InDelta(t, 0.9, v.Get(LipCornerPull), 1e-12)
	assert.InDelta(t, 0.7*0.5+0.3*0.4, v.Get(LipCornerDepress), 1e-12)
	assert.InDelta(t, 0.3*0.4+0.8*0.1, v.Get(NoseWrinkle), 1e-12)
	assert.InDelta(t, 0.7*0.3+1.0*0.2, v.Get(UpperLidRaise), 1e-12)
	assert.InDelta(t, 0.8*0.2, v.Get(OuterBrowRaise), 1e-12)
	assert.InDelta(t, 0.5*0.4, v.Get(LidTighten), 1e-12)
	assert.InDelta(t, 0.3*0.2, v.Get(LipsPart), 1e-12)
	assert.InDelta(t, 0.5*0.9, v.Get(CheekRaise), 1e-12)
	assert.InDelta(t, 0.5*0.1, v.Get(UpperLipRaise), 1e-12)
}

func TestMapEmotionsLeavesUndrivenUnitsAtZero(t *testing.T) {
	var e EmotionVector
	for i := range e {
		e[i] = 1
	}
	v := MapEmotions(e)

	for _, au := range []ActionUnit{ChinRaise, LipStretch, MouthStretch} {
		assert.Zero(t, v.Get(au), au.String())
	}
	assert.Zero(t, MapEmotions(EmotionVector{}.With(Fear, 1)).Get(OuterBrowRaise))
	assert.Zero(t, MapEmotions(EmotionVector{}.With(Disgust, 1)).Get(LidTighten))
}

func TestMapEmotionsIsolation(t *testing.T) {
	happy := MapEmotions(EmotionVector{}.With(Happiness, 1))
	assert.Equal(t, 1.0, happy.Get(LipCornerPull))
	assert.Equal(t, 0.5, happy.Get(CheekRaise))
	assert.Zero(t, happy.Get(BrowLower))
	assert.Zero(t, happy.Get(LipCornerDepress))

	angry := MapEmotions(EmotionVector{}.With(Anger, 1))
	assert.Equal(t, 0.8, angry.Get(BrowLower))
	assert.Equal(t, 0.5, angry.Get(LidTighten))
	assert.Equal(t, 0.3, angry.Get(NoseWrinkle))
	assert.Zero(t, angry.Get(LipCornerPull))
}

func TestMapEmotionsNotClamped(t *testing.T) {
	var e EmotionVector
	e[Fear] = 1
	e[Surprise] = 1

	v := MapEmotions(e)
	assert.InDelta(t, 1.7, v.Get(UpperLidRaise), 1e-12)
}

func TestCoefficient(t *testing.T) {
	assert.Equal(t, 0.8, Coefficient(BrowLower, Anger))
	assert.Equal(t, 0.0, Coefficient(BrowLower, Happiness))
	assert.Equal(t, 1.0, Coefficient(UpperLidRaise, Surprise))
	assert.Equal(t, 0.0, Coefficient(ChinRaise, Sadness))
	assert.Equal(t, 0.0, Coefficient(EyeBlinkLeft, Happiness))
}

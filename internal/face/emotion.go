package face

// Emotion enumerates the emotions that drive the mapper. The declaration
// order is the tie-break order used by the Prioritizer.
type Emotion int

const (
	Happiness Emotion = iota
	Sadness
	Anger
	Fear
	Surprise
	Disgust
	EmotionCount
)

var emotionNames = [EmotionCount]string{
	"happiness",
	"sadness",
	"anger",
	"fear",
	"surprise",
	"disgust",
}

func (e Emotion) String() string {
	if e < 0 || e >= EmotionCount {
		return "unknown"
	}
	return emotionNames[e]
}

// ParseEmotion resolves a wire name such as "happiness".
func ParseEmotion(name string) (Emotion, bool) {
	for i, n := range emotionNames {
		if n == name {
			return Emotion(i), true
		}
	}
	return -1, false
}

// Emotions returns every emotion in tie-break order.
func Emotions() []Emotion {
	out := make([]Emotion, EmotionCount)
	for i := range out {
		out[i] = Emotion(i)
	}
	return out
}

// EmotionVector holds one score in [0,1] per Emotion.
type EmotionVector [EmotionCount]float64

func (v EmotionVector) Get(e Emotion) float64 {
	return v[e]
}

// With returns a copy of v with e replaced.
func (v EmotionVector) With(e Emotion, value float64) EmotionVector {
	v[e] = value
	return v
}

// Active counts the non-zero entries.
func (v EmotionVector) Active() int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}

// Dominant returns the strongest emotion, or false for the zero vector.
func (v EmotionVector) Dominant() (Emotion, bool) {
	best, found := Emotion(-1), false
	for i, x := range v {
		if x > 0 && (!found || x > v[best]) {
			best, found = Emotion(i), true
		}
	}
	return best, found
}

func (v EmotionVector) Map() map[string]float64 {
	out := make(map[string]float64, EmotionCount)
	for i, x := range v {
		out[emotionNames[i]] = x
	}
	return out
}

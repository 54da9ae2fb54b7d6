package face

import "math"

// Channel identifies one actuation channel pushed to a Sink. The first
// ActionUnitCount channels are the emotion-driven action units; the blink
// channels after them are driven only by the idle layer.
type Channel int

// ActionUnit is a Channel that belongs to a Vector.
type ActionUnit = Channel

const (
	InnerBrowRaise Channel = iota
	OuterBrowRaise
	BrowLower
	UpperLidRaise
	CheekRaise
	LidTighten
	NoseWrinkle
	UpperLipRaise
	LipCornerPull
	LipCornerDepress
	ChinRaise
	LipStretch
	LipsPart
	JawDrop
	MouthStretch
	EyeBlinkLeft
	EyeBlinkRight
	ChannelCount
)

const ActionUnitCount = int(EyeBlinkLeft)

var channelNames = [ChannelCount]string{
	"innerBrowRaise",
	"outerBrowRaise",
	"browLower",
	"upperLidRaise",
	"cheekRaise",
	"lidTighten",
	"noseWrinkle",
	"upperLipRaise",
	"lipCornerPull",
	"lipCornerDepress",
	"chinRaise",
	"lipStretch",
	"lipsPart",
	"jawDrop",
	"mouthStretch",
	"eyeBlinkLeft",
	"eyeBlinkRight",
}

func (c Channel) String() string {
	if c < 0 || c >= ChannelCount {
		return "unknown"
	}
	return channelNames[c]
}

// IsActionUnit reports whether c is carried by a Vector.
func (c Channel) IsActionUnit() bool {
	return c >= 0 && int(c) < ActionUnitCount
}

// ParseChannel resolves a wire name. The second result is false for unknown names.
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return -1, false
}

// Channels returns every channel in wire order.
func Channels() []Channel {
	out := make([]Channel, ChannelCount)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// Vector is one snapshot of action unit activations. Values are nominally in
// [0,1] but are never clamped here; eased transitions may overshoot.
type Vector [ActionUnitCount]float64

func (v Vector) Get(au ActionUnit) float64 {
	return v[au]
}

// Set returns a copy of v with au replaced.
func (v Vector) Set(au ActionUnit, value float64) Vector {
	v[au] = value
	return v
}

func (v Vector) Clone() Vector {
	return v
}

// Lerp interpolates every channel from v toward to. t is not clamped so
// overshooting curves carry through.
func (v Vector) Lerp(to Vector, t float64) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + (to[i]-v[i])*t
	}
	return out
}

func (v Vector) Add(other Vector) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + other[i]
	}
	return out
}

func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Map returns the vector keyed by wire name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, ActionUnitCount)
	for i := range v {
		out[channelNames[i]] = v[i]
	}
	return out
}

// VectorFromMap builds a Vector from wire names. Every action unit must be
// present and finite; unknown names and blink channels are rejected.
func VectorFromMap(m map[string]float64) (Vector, error) {
	var v Vector
	for name, value := range m {
		ch, ok := ParseChannel(name)
		if !ok || !ch.IsActionUnit() {
			return Vector{}, invalid(name, "unknown action unit")
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Vector{}, invalid(name, "value is not finite")
		}
		v[ch] = value
	}
	for i := 0; i < ActionUnitCount; i++ {
		if _, ok := m[channelNames[i]]; !ok {
			return Vector{}, invalid(channelNames[i], "missing action unit")
		}
	}
	return v, nil
}

// Frame is the fully composed output of one tick, covering every Channel.
type Frame [ChannelCount]float64

func (f Frame) Get(ch Channel) float64 {
	return f[ch]
}

// ActionUnits returns the action unit portion of the frame.
func (f Frame) ActionUnits() Vector {
	var v Vector
	copy(v[:], f[:ActionUnitCount])
	return v
}

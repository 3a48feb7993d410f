package callService

import (
	"SalmaVoice/internal/entity"
)

const (
	// emaAlpha weights the newest sample in the smoothed level.
	emaAlpha = 0.35
	// silenceThreshold zeroes levels below audible activity.
	silenceThreshold = 0.015
	// meterScale normalizes a per-sample byte delta into [0, 1].
	meterScale = 32768.0
)

// meter turns transport byte counters into smoothed voice-activity
// levels for the pulsing call UI.
type meter struct {
	lastIn  uint64
	lastOut uint64
	emaIn   float64
	emaOut  float64
	primed  bool
}

func newMeter() *meter {
	return &meter{}
}

func (m *meter) sample(bytesIn, bytesOut uint64) entity.AudioLevels {
	if !m.primed {
		m.lastIn, m.lastOut = bytesIn, bytesOut
		m.primed = true
		return entity.AudioLevels{}
	}

	rawIn := normalize(bytesIn - m.lastIn)
	rawOut := normalize(bytesOut - m.lastOut)
	m.lastIn, m.lastOut = bytesIn, bytesOut

	m.emaIn = emaAlpha*rawIn + (1-emaAlpha)*m.emaIn
	m.emaOut = emaAlpha*rawOut + (1-emaAlpha)*m.emaOut

	return entity.AudioLevels{
		Inbound:  gate(m.emaIn),
		Outbound: gate(m.emaOut),
	}
}

func (m *meter) reset() {
	*m = meter{}
}

func normalize(delta uint64) float64 {
	v := float64(delta) / meterScale
	if v > 1 {
		return 1
	}
	return v
}

func gate(v float64) float64 {
	if v < silenceThreshold {
		return 0
	}
	return v
}

package synth

import (
	"context"
	"math"
	"time"

	"github.com/airenas/docread/internal/pkg/audio"
)

// FakeSynth produces a quiet tone, 20ms per char. For testing without a real engine
type FakeSynth struct{}

// NewFakeSynth creates FakeSynth
func NewFakeSynth() *FakeSynth {
	return &FakeSynth{}
}

// Synthesize implements Synthesizer
func (f *FakeSynth) Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := audio.Silence(time.Duration(len([]rune(text))) * 20 * time.Millisecond)
	for i := range res {
		res[i] = float32(0.1 * math.Sin(2*math.Pi*440*float64(i)/audio.SampleRate))
	}
	return []audio.Segment{res}, nil
}

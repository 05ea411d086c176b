package synth

import (
	"context"
	"fmt"

	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/spf13/viper"
)

// DefaultVoice is used if no voice is configured
const DefaultVoice = "af_heart"

// Synthesizer turns text into audio segments at audio.SampleRate
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error)
}

// NewFromConfig creates synthesizer by 'synth.type'
func NewFromConfig(c *viper.Viper) (Synthesizer, error) {
	t := c.GetString("synth.type")
	goapp.Log.Info().Str("type", t).Msg("cfg: synthesizer")
	switch t {
	case "exec":
		return NewExecSynth(c.GetString("synth.cmd"))
	case "http":
		return NewHTTPSynth(c.GetString("synth.url"))
	case "fake":
		return NewFakeSynth(), nil
	}
	return nil, fmt.Errorf("unknown synth.type '%s'", t)
}

// Voice returns configured voice or default
func Voice(c *viper.Viper) string {
	if v := c.GetString("synth.voice"); v != "" {
		return v
	}
	return DefaultVoice
}

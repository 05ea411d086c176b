package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate of all segments produced by synthesizer and written to the result
const SampleRate = 24000

// Segment is a mono buffer of samples in [-1, 1]
type Segment []float32

// Silence makes a buffer of zeros for the duration
func Silence(d time.Duration) Segment {
	return make(Segment, int(int64(SampleRate)*int64(d)/int64(time.Second)))
}

// Join concatenates segments in the provided order
func Join(segments []Segment) Segment {
	l := 0
	for _, s := range segments {
		l += len(s)
	}
	res := make(Segment, 0, l)
	for _, s := range segments {
		res = append(res, s...)
	}
	return res
}

// FromPCM16 converts little endian signed 16 bit pcm bytes
func FromPCM16(pcm []byte) (Segment, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm payload not aligned")
	}
	res := make(Segment, len(pcm)/2)
	for i := range res {
		res[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return res, nil
}

// WriteWAV encodes samples as mono 16 bit wav
func WriteWAV(w io.WriteSeeker, samples Segment, sampleRate int) error {
	buffer := &gaudio.IntBuffer{Format: &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16, Data: make([]int, len(samples))}
	for i, s := range samples {
		buffer.Data[i] = toInt16(s)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

func toInt16(s float32) int {
	if s >= 1 {
		return 32767
	}
	if s <= -1 {
		return -32768
	}
	return int(s * 32767)
}

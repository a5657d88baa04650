// Package audio converts browser PCM frames to the provider's input format
package audio

import (
	"encoding/binary"
	"math"

	"github.com/chefbud/voice-platform/internal/apperr"
)

// Float32 little-endian sample width of inbound browser frames.
const inputSampleBytes = 4

// Resampler converts mono float32 PCM at the input rate to mono int16 PCM
// ("pcm16") at the output rate. Each frame is resampled independently; there
// is no filter state carried across frames.
type Resampler struct {
	inRate  int
	outRate int
}

// NewResampler creates a resampler for the given sample rates.
func NewResampler(inRate, outRate int) *Resampler {
	return &Resampler{inRate: inRate, outRate: outRate}
}

// Resample converts one raw frame. The output sample count is a deterministic
// function of the input length: len(samples) * outRate / inRate. Samples are
// linearly interpolated, clamped to [-1, 1] and scaled to int16 range.
func (r *Resampler) Resample(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, nil
	}
	if len(frame)%inputSampleBytes != 0 {
		return nil, apperr.Newf(apperr.AudioTransfer, "frame length %d is not float32-aligned", len(frame))
	}

	in := make([]float32, len(frame)/inputSampleBytes)
	for i := range in {
		bits := binary.LittleEndian.Uint32(frame[i*inputSampleBytes:])
		in[i] = math.Float32frombits(bits)
	}

	outLen := len(in) * r.outRate / r.inRate
	out := make([]byte, outLen*2)
	step := float64(r.inRate) / float64(r.outRate)

	for i := 0; i < outLen; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)

		s := float64(in[j])
		if j+1 < len(in) {
			s += frac * float64(in[j+1]-in[j])
		}

		binary.LittleEndian.PutUint16(out[i*2:], uint16(pcm16(s)))
	}
	return out, nil
}

// pcm16 clamps a sample to [-1, 1] and scales it to int16 range.
func pcm16(s float64) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int16(s * 32767)
}

package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chefbud/voice-platform/internal/apperr"
)

func floatFrame(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func TestResampleHalvesSampleCount(t *testing.T) {
	r := NewResampler(48000, 24000)

	in := make([]float32, 480)
	out, err := r.Resample(floatFrame(in))
	if err != nil {
		t.Fatalf("Resample error: %v", err)
	}

	// 480 float32 samples at 48k -> 240 int16 samples at 24k.
	if len(out) != 240*2 {
		t.Errorf("output bytes = %d, want %d", len(out), 240*2)
	}
}

func TestResampleOutputLengthIsDeterministic(t *testing.T) {
	r := NewResampler(48000, 24000)

	for _, n := range []int{2, 10, 100, 512} {
		out, err := r.Resample(floatFrame(make([]float32, n)))
		if err != nil {
			t.Fatalf("Resample(%d samples) error: %v", n, err)
		}
		want := (n * 24000 / 48000) * 2
		if len(out) != want {
			t.Errorf("Resample(%d samples) = %d bytes, want %d", n, len(out), want)
		}
	}
}

func TestResampleConstantSignal(t *testing.T) {
	r := NewResampler(48000, 24000)

	in := make([]float32, 100)
	for i := range in {
		in[i] = 0.5
	}

	out, err := r.Resample(floatFrame(in))
	if err != nil {
		t.Fatalf("Resample error: %v", err)
	}

	half := 0.5
	want := int16(half * 32767)
	for i := 0; i < len(out); i += 2 {
		v := int16(binary.LittleEndian.Uint16(out[i:]))
		if v != want {
			t.Fatalf("sample %d = %d, want %d", i/2, v, want)
		}
	}
}

func TestResampleClampsOutOfRange(t *testing.T) {
	r := NewResampler(48000, 24000)

	out, err := r.Resample(floatFrame([]float32{2.0, 2.0, -2.0, -2.0}))
	if err != nil {
		t.Fatalf("Resample error: %v", err)
	}
	if len(out) != 2*2 {
		t.Fatalf("output bytes = %d, want 4", len(out))
	}

	if v := int16(binary.LittleEndian.Uint16(out[0:])); v != 32767 {
		t.Errorf("clamped high sample = %d, want 32767", v)
	}
	if v := int16(binary.LittleEndian.Uint16(out[2:])); v != -32767 {
		t.Errorf("clamped low sample = %d, want -32767", v)
	}
}

func TestResampleEmptyFrame(t *testing.T) {
	r := NewResampler(48000, 24000)

	out, err := r.Resample(nil)
	if err != nil {
		t.Fatalf("Resample error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("output bytes = %d, want 0", len(out))
	}
}

func TestResampleMisalignedFrame(t *testing.T) {
	r := NewResampler(48000, 24000)

	_, err := r.Resample([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected error for misaligned frame")
	}
	if !apperr.IsCode(err, apperr.AudioTransfer) {
		t.Errorf("error code = %v, want AudioTransfer", apperr.CodeOf(err))
	}
}

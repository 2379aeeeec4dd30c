package resource

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
)

// ErrUnsupportedBitDepth is returned when a wav file uses a bit depth
// other than 16, 24 or 32.
var ErrUnsupportedBitDepth = errors.New("resource: unsupported bit depth")

// LoadWAV decodes a wav file into a mono float buffer in [-1, 1] and
// returns it together with the file's sample rate. Multichannel files are
// mixed down by averaging. This is a control-context helper for loading
// impulse responses and wavetables before a Put.
func LoadWAV(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("resource: %q is not a valid wav file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("resource: decoding %q: %w", path, err)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, 0, fmt.Errorf("%w: %d bit", ErrUnsupportedBitDepth, bitDepth)
	}
	divider := float32(math.Pow(2, float64(bitDepth-1)))

	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		return nil, 0, fmt.Errorf("resource: %q has no channels", path)
	}
	numFrames := len(buf.Data) / numChannels

	mono := make([]float32, numFrames)
	for frame := 0; frame < numFrames; frame++ {
		var sum float32
		for ch := 0; ch < numChannels; ch++ {
			sum += float32(buf.Data[frame*numChannels+ch]) / divider
		}
		mono[frame] = sum / float32(numChannels)
	}
	return mono, int(decoder.SampleRate), nil
}

package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/viert/lame"

	phonograph "github.com/dudk/phonograph"
)

type renderCommand struct {
	out      string
	freq     float64
	ir       string
	duration float64
	bitRate  int
	quality  int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render the demo patch offline to a wav or mp3 file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "out.wav", "output file, .wav or .mp3")
	fs.Float64Var(&cmd.freq, "freq", 440, "tone frequency in Hz")
	fs.StringVar(&cmd.ir, "ir", "", "wav file with an impulse response to convolve with")
	fs.Float64Var(&cmd.duration, "duration", 2, "render duration in seconds")
	fs.IntVar(&cmd.bitRate, "bitrate", 192, "mp3 bit rate")
	fs.IntVar(&cmd.quality, "quality", 2, "mp3 encoder quality, 0 best to 9 worst")
}

func (cmd *renderCommand) Run() error {
	const (
		sampleRate = 44100
		blockSize  = 512
	)
	r, err := buildPatch(sampleRate, blockSize, cmd.freq, cmd.ir)
	if err != nil {
		return err
	}

	var sink func(*phonograph.Runtime, int) error
	switch strings.ToLower(filepath.Ext(cmd.out)) {
	case ".wav":
		sink = cmd.renderWAV
	case ".mp3":
		sink = cmd.renderMP3
	default:
		return fmt.Errorf("unsupported output format %q", cmd.out)
	}

	blocks := int(cmd.duration * sampleRate / blockSize)
	return sink(r, blocks)
}

func (cmd *renderCommand) renderWAV(r *phonograph.Runtime, blocks int) error {
	f, err := os.Create(cmd.out)
	if err != nil {
		return err
	}
	defer f.Close()

	const bitDepth = 16
	e := wav.NewEncoder(f, int(r.SampleRate()), bitDepth, 1, 1)
	buf := make([]float32, r.BlockSize())
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  int(r.SampleRate()),
		},
		Data:           make([]int, r.BlockSize()),
		SourceBitDepth: bitDepth,
	}

	for i := 0; i < blocks; i++ {
		r.Process(nil, [][]float32{buf}, r.BlockSize())
		for j, s := range buf {
			ib.Data[j] = pcm16(s)
		}
		if err := e.Write(ib); err != nil {
			return err
		}
	}
	return e.Close()
}

func (cmd *renderCommand) renderMP3(r *phonograph.Runtime, blocks int) error {
	f, err := os.Create(cmd.out)
	if err != nil {
		return err
	}
	defer f.Close()

	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(cmd.bitRate)
	wr.Encoder.SetQuality(cmd.quality)
	wr.Encoder.SetNumChannels(1)
	wr.Encoder.SetInSamplerate(int(r.SampleRate()))
	wr.Encoder.SetMode(lame.MONO)
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()

	buf := make([]float32, r.BlockSize())
	for i := 0; i < blocks; i++ {
		r.Process(nil, [][]float32{buf}, r.BlockSize())
		pcm := new(bytes.Buffer)
		for _, s := range buf {
			if err := binary.Write(pcm, binary.LittleEndian, int16(pcm16(s))); err != nil {
				return err
			}
		}
		if _, err := wr.Write(pcm.Bytes()); err != nil {
			return err
		}
	}
	return wr.Close()
}

// pcm16 converts a sample to 16 bit pcm, clipping out-of-range values.
func pcm16(s float32) int {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int(s * 32767)
}

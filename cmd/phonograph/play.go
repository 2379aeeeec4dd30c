package main

import (
	"flag"

	"github.com/gordonklaus/portaudio"
)

type playCommand struct {
	freq     float64
	ir       string
	duration float64
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play the demo patch on the default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	fs.Float64Var(&cmd.freq, "freq", 440, "tone frequency in Hz")
	fs.StringVar(&cmd.ir, "ir", "", "wav file with an impulse response to convolve with")
	fs.Float64Var(&cmd.duration, "duration", 2, "playback duration in seconds")
}

func (cmd *playCommand) Run() error {
	const (
		sampleRate = 44100
		blockSize  = 512
	)
	r, err := buildPatch(sampleRate, blockSize, cmd.freq, cmd.ir)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	buf := make([]float32, blockSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, blockSize, &buf)
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	blocks := int(cmd.duration * sampleRate / blockSize)
	for i := 0; i < blocks; i++ {
		r.Process(nil, [][]float32{buf}, blockSize)
		if err := stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

// Package config describes a two-stage relay (a decoding stage, an
// encoding stage and the relay between them) in YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/relay"
	"github.com/xaionaro-go/avrelay/types"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChannels      = 2
	DefaultSampleRate    = 48000
	DefaultBitsPerSample = 16
)

type Config struct {
	Decoder StageConfig `yaml:"decoder"`
	Encoder StageConfig `yaml:"encoder"`
	Relay   RelayConfig `yaml:"relay"`

	// Overwrite makes the output files to be deleted before opening
	// the stages (the engines refuse to overwrite files).
	Overwrite bool `yaml:"overwrite,omitempty"`
}

type StageConfig struct {
	Inputs  []SocketConfig `yaml:"inputs"`
	Outputs []SocketConfig `yaml:"outputs"`
}

type SocketConfig struct {
	File       string           `yaml:"file,omitempty"`
	StreamType types.StreamType `yaml:"stream_type,omitempty"`
	Pins       []PinConfig      `yaml:"pins,omitempty"`
}

type PinConfig struct {
	Kind          PinKind          `yaml:"kind,omitempty"`
	StreamType    types.StreamType `yaml:"stream_type,omitempty"`
	Channels      int              `yaml:"channels,omitempty"`
	SampleRate    int              `yaml:"sample_rate,omitempty"`
	BitsPerSample int              `yaml:"bits_per_sample,omitempty"`
}

type RelayConfig struct {
	DecoderOutputIndex int `yaml:"decoder_output_index"`
	EncoderInputIndex  int `yaml:"encoder_input_index"`
}

// Default is the relay of an AAC (ADTS) file into a WAVE file through
// 48kHz 16-bit stereo LPCM.
func Default(input, output string) Config {
	lpcm := PinConfig{
		Kind:          PinKindAudio,
		StreamType:    types.StreamTypeLPCM,
		Channels:      DefaultChannels,
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
	}
	return Config{
		Decoder: StageConfig{
			Inputs: []SocketConfig{{File: input}},
			Outputs: []SocketConfig{{
				StreamType: types.StreamTypeLPCM,
				Pins:       []PinConfig{lpcm},
			}},
		},
		Encoder: StageConfig{
			Inputs: []SocketConfig{{
				StreamType: types.StreamTypeLPCM,
				Pins:       []PinConfig{lpcm},
			}},
			Outputs: []SocketConfig{{
				File:       output,
				StreamType: types.StreamTypeWAVE,
				Pins:       []PinConfig{lpcm},
			}},
		},
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a config; unknown fields are errors.
func Parse(b []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Bytes() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (cfg Config) Validate() error {
	var errs []error
	if err := cfg.Decoder.validate("decoder"); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Encoder.validate("encoder"); err != nil {
		errs = append(errs, err)
	}
	if idx := cfg.Relay.DecoderOutputIndex; idx < 0 || idx >= len(cfg.Decoder.Outputs) {
		errs = append(errs, fmt.Errorf("relay: decoder output #%d does not exist", idx))
	}
	if idx := cfg.Relay.EncoderInputIndex; idx < 0 || idx >= len(cfg.Encoder.Inputs) {
		errs = append(errs, fmt.Errorf("relay: encoder input #%d does not exist", idx))
	}
	return errors.Join(errs...)
}

func (s StageConfig) validate(name string) error {
	var errs []error
	if len(s.Inputs) == 0 {
		errs = append(errs, fmt.Errorf("%s: no inputs", name))
	}
	if len(s.Outputs) == 0 {
		errs = append(errs, fmt.Errorf("%s: no outputs", name))
	}
	for idx, socket := range s.Inputs {
		for pinIdx, pin := range socket.Pins {
			if err := pin.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: input #%d: pin #%d: %w", name, idx, pinIdx, err))
			}
		}
	}
	for idx, socket := range s.Outputs {
		for pinIdx, pin := range socket.Pins {
			if err := pin.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: output #%d: pin #%d: %w", name, idx, pinIdx, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (p PinConfig) validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"channels", p.Channels},
		{"sample_rate", p.SampleRate},
		{"bits_per_sample", p.BitsPerSample},
	} {
		if v.value < 0 {
			return fmt.Errorf("%s must not be negative: %d", v.name, v.value)
		}
	}
	if p.Kind != PinKindAudio && (p.Channels != 0 || p.SampleRate != 0 || p.BitsPerSample != 0) {
		return fmt.Errorf("audio parameters are set on a pin of kind '%s'", p.Kind)
	}
	return nil
}

// Sockets converts the stage inputs and outputs into pipeline sockets.
func (s StageConfig) Sockets() (inputs, outputs []pipeline.Socket) {
	for _, c := range s.Inputs {
		inputs = append(inputs, c.Socket())
	}
	for _, c := range s.Outputs {
		outputs = append(outputs, c.Socket())
	}
	return
}

func (c SocketConfig) Socket() pipeline.Socket {
	s := pipeline.NewSocket().
		File(c.File).
		StreamType(c.StreamType)
	for _, p := range c.Pins {
		s = s.AddPin(p.Pin())
	}
	return s
}

func (p PinConfig) Pin() pipeline.Pin {
	switch p.Kind {
	case PinKindNone:
		return pipeline.NewPin()
	case PinKindOther:
		return pipeline.NewPin().StreamDescriptor(pipeline.OtherStream(p.StreamType))
	default:
		return pipeline.NewPin().
			AudioStreamType(p.StreamType).
			Channels(p.Channels).
			SampleRate(p.SampleRate).
			BitsPerSample(p.BitsPerSample)
	}
}

func (r RelayConfig) RelayConfig() relay.Config {
	return relay.Config{
		SourceOutputIndex: r.DecoderOutputIndex,
		SinkInputIndex:    r.EncoderInputIndex,
	}
}

// OutputFiles returns the files written by either stage.
func (cfg Config) OutputFiles() []string {
	var result []string
	for _, s := range slices.Concat(cfg.Decoder.Outputs, cfg.Encoder.Outputs) {
		if s.File != "" {
			result = append(result, s.File)
		}
	}
	return result
}

// WithAudioFormat returns a copy of cfg with the non-zero parameters set
// on every audio pin.
func (cfg Config) WithAudioFormat(channels, sampleRate, bitsPerSample int) Config {
	override := func(sockets []SocketConfig) []SocketConfig {
		sockets = slices.Clone(sockets)
		for idx := range sockets {
			pins := slices.Clone(sockets[idx].Pins)
			for pinIdx := range pins {
				p := &pins[pinIdx]
				if p.Kind != PinKindAudio {
					continue
				}
				if channels != 0 {
					p.Channels = channels
				}
				if sampleRate != 0 {
					p.SampleRate = sampleRate
				}
				if bitsPerSample != 0 {
					p.BitsPerSample = bitsPerSample
				}
			}
			sockets[idx].Pins = pins
		}
		return sockets
	}
	cfg.Decoder.Inputs = override(cfg.Decoder.Inputs)
	cfg.Decoder.Outputs = override(cfg.Decoder.Outputs)
	cfg.Encoder.Inputs = override(cfg.Encoder.Inputs)
	cfg.Encoder.Outputs = override(cfg.Encoder.Outputs)
	return cfg
}

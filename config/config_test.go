package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avrelay/pipeline"
	"github.com/xaionaro-go/avrelay/relay"
	"github.com/xaionaro-go/avrelay/types"
)

const sampleYAML = `
decoder:
  inputs:
    - file: in.aac
  outputs:
    - stream_type: lpcm
      pins:
        - stream_type: LPCM
          channels: 2
          sample_rate: 48000
          bits_per_sample: 16
encoder:
  inputs:
    - stream_type: lpcm
      pins:
        - {stream_type: lpcm, channels: 2, sample_rate: 48000, bits_per_sample: 16}
  outputs:
    - file: out.wav
      stream_type: wav
      pins:
        - {stream_type: lpcm}
relay:
  decoder_output_index: 0
  encoder_input_index: 0
overwrite: true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.True(t, cfg.Overwrite)
	require.Equal(t, "in.aac", cfg.Decoder.Inputs[0].File)
	require.Equal(t, types.StreamTypeWAVE, cfg.Encoder.Outputs[0].StreamType)
	require.Equal(t, []string{"out.wav"}, cfg.OutputFiles())
	require.Equal(t, relay.Config{}, cfg.Relay.RelayConfig())

	inputs, outputs := cfg.Encoder.Sockets()
	require.Len(t, inputs, 1)
	require.Len(t, outputs, 1)
	params, ok := inputs[0].Pins()[0].Descriptor().Audio()
	require.True(t, ok)
	require.Equal(t, pipeline.AudioParams{Channels: 2, SampleRate: 48000, BitsPerSample: 16}, params)
	require.Equal(t, "out.wav", outputs[0].Path())
}

func TestDefaultMatchesSample(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	def := Default("in.aac", "out.wav")
	require.Equal(t, def.Decoder, cfg.Decoder)
	require.Equal(t, def.Encoder.Inputs, cfg.Encoder.Inputs)
}

func TestBytesRoundTrip(t *testing.T) {
	def := Default("in.aac", "out.wav")
	b, err := def.Bytes()
	require.NoError(t, err)
	cfg, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, def, cfg)
}

func TestParseErrors(t *testing.T) {
	type testCase struct {
		name string
		yaml string
	}
	for _, tc := range []testCase{
		{name: "unknown_field", yaml: "decoder: {inputs: [{file: a}], outputs: [{}]}\nencoder: {inputs: [{}], outputs: [{}]}\nbogus: 1\n"},
		{name: "unknown_stream_type", yaml: "decoder: {inputs: [{file: a, stream_type: flac}], outputs: [{}]}\nencoder: {inputs: [{}], outputs: [{}]}\n"},
		{name: "unknown_pin_kind", yaml: "decoder: {inputs: [{file: a}], outputs: [{pins: [{kind: video}]}]}\nencoder: {inputs: [{}], outputs: [{}]}\n"},
		{name: "audio_params_on_other_pin", yaml: "decoder: {inputs: [{file: a}], outputs: [{pins: [{kind: other, channels: 2}]}]}\nencoder: {inputs: [{}], outputs: [{}]}\n"},
		{name: "no_encoder", yaml: "decoder: {inputs: [{file: a}], outputs: [{}]}\n"},
		{name: "relay_index", yaml: "decoder: {inputs: [{file: a}], outputs: [{}]}\nencoder: {inputs: [{}], outputs: [{}]}\nrelay: {encoder_input_index: 1}\n"},
		{name: "empty", yaml: ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Decoder.Outputs, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPinKinds(t *testing.T) {
	require.Equal(t, pipeline.KindNone, PinConfig{Kind: PinKindNone}.Pin().Descriptor().Kind())
	other := PinConfig{Kind: PinKindOther, StreamType: types.StreamTypeMP3}.Pin().Descriptor()
	require.Equal(t, pipeline.KindOther, other.Kind())
	require.Equal(t, types.StreamTypeMP3, other.StreamType())
}

func TestWithAudioFormat(t *testing.T) {
	def := Default("in.aac", "out.wav")
	cfg := def.WithAudioFormat(1, 0, 8)

	pin := cfg.Encoder.Outputs[0].Pins[0]
	require.Equal(t, 1, pin.Channels)
	require.Equal(t, DefaultSampleRate, pin.SampleRate)
	require.Equal(t, 8, pin.BitsPerSample)
	require.Empty(t, cfg.Decoder.Inputs[0].Pins)

	require.Equal(t, DefaultChannels, def.Encoder.Outputs[0].Pins[0].Channels, "the original must not change")
	require.NoError(t, cfg.Validate())
}

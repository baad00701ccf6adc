package avrelay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/avrelay/config"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/relay"
)

// DecodeRelay opens a decoding and an encoding stage and relays everything
// pulled from the decoding stage into the encoding stage, followed by a
// single end of stream.
//
// Nothing is relayed unless both stages are open. Both stages are closed
// on every path; the returned statistics are nil if the relay never
// started.
func DecodeRelay(
	ctx context.Context,
	lib *Library,
	decoderCfg config.StageConfig,
	encoderCfg config.StageConfig,
	relayCfg relay.Config,
) (*Statistics, error) {
	stats, _, err := decodeRelay(ctx, lib, decoderCfg, encoderCfg, relayCfg)
	return stats, err
}

// decodeRelay is DecodeRelay that also returns the stages it created
// (already closed), in the decoder, encoder order.
func decodeRelay(
	ctx context.Context,
	lib *Library,
	decoderCfg config.StageConfig,
	encoderCfg config.StageConfig,
	relayCfg relay.Config,
) (_ *Statistics, _stages []*Transcoder, _err error) {
	logger.Debugf(ctx, "DecodeRelay")
	defer func() { logger.Debugf(ctx, "/DecodeRelay: %v", _err) }()

	closeStage := func(name string, t *Transcoder) {
		if err := t.Close(belt.WithField(ctx, "stage", name)); err != nil {
			_err = errors.Join(_err, fmt.Errorf("unable to close the %s: %w", name, err))
		}
	}

	decInputs, decOutputs := decoderCfg.Sockets()
	decoder, err := openTranscoder(belt.WithField(ctx, "stage", "decoder"), lib, decInputs, decOutputs)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder: %w", err)
	}
	defer closeStage("decoder", decoder)

	encInputs, encOutputs := encoderCfg.Sockets()
	encoder, err := openTranscoder(belt.WithField(ctx, "stage", "encoder"), lib, encInputs, encOutputs)
	if err != nil {
		return nil, []*Transcoder{decoder}, fmt.Errorf("encoder: %w", err)
	}
	defer closeStage("encoder", encoder)

	stats, err := relay.Run(ctx, decoder, encoder, relayCfg)
	return stats, []*Transcoder{decoder, encoder}, err
}

// RunConfig runs the relay described by cfg, deleting the output files
// first if cfg.Overwrite is set.
func RunConfig(
	ctx context.Context,
	lib *Library,
	cfg config.Config,
) (*Statistics, error) {
	if cfg.Overwrite {
		if err := RemoveOutputs(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return DecodeRelay(ctx, lib, cfg.Decoder, cfg.Encoder, cfg.Relay.RelayConfig())
}

// RemoveOutputs deletes the output files of cfg; files that do not exist
// are ignored.
func RemoveOutputs(
	ctx context.Context,
	cfg config.Config,
) error {
	for _, path := range cfg.OutputFiles() {
		logger.Debugf(ctx, "removing '%s'", path)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to remove '%s': %w", path, err)
		}
	}
	return nil
}

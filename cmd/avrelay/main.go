package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avrelay"
	"github.com/xaionaro-go/avrelay/config"
	"github.com/xaionaro-go/avrelay/engine"
	"github.com/xaionaro-go/avrelay/engine/libav"
	"github.com/xaionaro-go/avrelay/engine/native"
	"github.com/xaionaro-go/avrelay/logger"
	"github.com/xaionaro-go/avrelay/metrics"
	"github.com/xaionaro-go/avrelay/relay"
	"github.com/xaionaro-go/avrelay/types"
	"github.com/xaionaro-go/observability"
)

const (
	modeFile = "file"
	modePull = "pull"
)

type flags struct {
	Mode          string
	ConfigPath    string
	Engine        string
	Overwrite     bool
	Channels      int
	SampleRate    int
	BitsPerSample int
	ChunkFrames   int
	MetricsAddr   string
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input> <output>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        %s [flags] --config <file.yaml>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	var f flags
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.StringVar(&f.MetricsAddr, "metrics-listen-addr", "", "an address to serve Prometheus metrics at (path /metrics)")
	pflag.StringVar(&f.Mode, "mode", modePull, "file: transcode within one session; pull: decode, relay and encode within two sessions")
	pflag.StringVar(&f.ConfigPath, "config", "", "a YAML file describing the stages of the pull mode")
	pflag.StringVar(&f.Engine, "engine", "auto", "auto|native|libav")
	pflag.BoolVar(&f.Overwrite, "overwrite", false, "delete the output files first")
	pflag.IntVar(&f.Channels, "channels", config.DefaultChannels, "LPCM channels")
	pflag.IntVar(&f.SampleRate, "sample-rate", config.DefaultSampleRate, "LPCM sample rate")
	pflag.IntVar(&f.BitsPerSample, "bits-per-sample", config.DefaultBitsPerSample, "LPCM bits per sample")
	pflag.IntVar(&f.ChunkFrames, "chunk-frames", 0, "frames per pulled sample (0: the engine default)")
	pflag.Parse()

	switch {
	case f.ConfigPath != "" && len(pflag.Args()) == 0:
	case f.ConfigPath == "" && len(pflag.Args()) == 2:
	default:
		pflag.Usage()
		os.Exit(1)
	}

	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	logger.SetDefault(func() logger.Logger {
		return l
	})

	if *netPprofAddr != "" {
		observability.Go(ctx, func(context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	err := run(ctx, f, pflag.Args())
	belt.Flush(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newEngine(
	ctx context.Context,
	name string,
	chunkFrames int,
) (engine.Engine, error) {
	switch name {
	case "auto":
		if libav.Available() {
			return libav.New(ctx, libav.Config{ChunkFrames: chunkFrames})
		}
		logger.Debugf(ctx, "libav is not compiled in, using the native engine")
		return native.New(ctx, native.Config{ChunkFrames: chunkFrames}), nil
	case "libav":
		return libav.New(ctx, libav.Config{ChunkFrames: chunkFrames})
	case "native":
		return native.New(ctx, native.Config{ChunkFrames: chunkFrames}), nil
	default:
		return nil, fmt.Errorf("unknown engine '%s'", name)
	}
}

func run(
	ctx context.Context,
	f flags,
	args []string,
) (_err error) {
	eng, err := newEngine(ctx, f.Engine, f.ChunkFrames)
	if err != nil {
		return err
	}
	lib, err := avrelay.Init(ctx, eng)
	if err != nil {
		return err
	}
	defer func() {
		_err = errors.Join(_err, lib.Close(ctx))
	}()

	switch f.Mode {
	case modeFile:
		if len(args) != 2 {
			return fmt.Errorf("the file mode requires <input> and <output>")
		}
		return runFile(ctx, lib, f, args[0], args[1])
	case modePull:
		return runPull(ctx, lib, f, args)
	default:
		return fmt.Errorf("unknown mode '%s'", f.Mode)
	}
}

func runFile(
	ctx context.Context,
	lib *avrelay.Library,
	f flags,
	input, output string,
) error {
	if f.Overwrite {
		if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to remove '%s': %w", output, err)
		}
	}

	startedAt := time.Now()
	err := avrelay.Transcode(ctx, lib,
		[]avrelay.Socket{avrelay.NewSocket().File(input)},
		[]avrelay.Socket{avrelay.NewSocket().
			File(output).
			StreamType(types.StreamTypeFromPath(output)).
			AddPin(avrelay.NewPin().
				AudioStreamType(types.StreamTypeLPCM).
				Channels(f.Channels).
				SampleRate(f.SampleRate).
				BitsPerSample(f.BitsPerSample),
			)},
	)
	if err != nil {
		return err
	}
	if info, err := os.Stat(output); err == nil {
		fmt.Printf("wrote %s into '%s' in %v\n", humanize.Bytes(uint64(info.Size())), output, time.Since(startedAt).Round(time.Millisecond))
	}
	return nil
}

func runPull(
	ctx context.Context,
	lib *avrelay.Library,
	f flags,
	args []string,
) error {
	var cfg config.Config
	if f.ConfigPath != "" {
		var err error
		cfg, err = config.Load(f.ConfigPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default(args[0], args[1])
	}
	if f.ConfigPath == "" || pflag.CommandLine.Changed("channels") ||
		pflag.CommandLine.Changed("sample-rate") || pflag.CommandLine.Changed("bits-per-sample") {
		cfg = cfg.WithAudioFormat(f.Channels, f.SampleRate, f.BitsPerSample)
	}
	if f.Overwrite || cfg.Overwrite {
		if err := avrelay.RemoveOutputs(ctx, cfg); err != nil {
			return err
		}
	}

	stats := relay.NewStatistics()
	if f.MetricsAddr != "" {
		serveMetrics(ctx, f.MetricsAddr, stats)
	}

	relayCfg := cfg.Relay.RelayConfig()
	relayCfg.Statistics = stats
	startedAt := time.Now()
	_, err := avrelay.DecodeRelay(ctx, lib, cfg.Decoder, cfg.Encoder, relayCfg)
	printStatistics(ctx, stats, time.Since(startedAt))
	return err
}

func serveMetrics(
	ctx context.Context,
	addr string,
	stats *relay.Statistics,
) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewRelayCollector("main", stats),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	observability.Go(ctx, func(ctx context.Context) {
		logger.Errorf(ctx, "metrics server: %v", http.ListenAndServe(addr, mux))
	})
}

func printStatistics(
	ctx context.Context,
	stats *relay.Statistics,
	elapsed time.Duration,
) {
	s := stats.Convert()
	fmt.Printf(
		"relayed %d samples (%s) in %v, end of stream signalled: %t\n",
		s.SamplesRelayed, humanize.Bytes(s.BytesRelayed), elapsed.Round(time.Millisecond), s.EndOfStreamPushes > 0,
	)
	if b, err := json.Marshal(s); err == nil {
		logger.Debugf(ctx, "statistics: %s", b)
	}
}

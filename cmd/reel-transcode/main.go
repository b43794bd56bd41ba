// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// reel-transcode converts session recordings into video files.
//
// A recording is a stream of framed drawing instructions captured from
// a remote desktop session. reel-transcode replays the stream against
// an in-memory display, resamples the recorded timeline to a constant
// frame rate, and encodes the result through FFmpeg. Compressed
// recordings (gzip, zstd, lz4) are detected and decompressed
// transparently.
//
// Defaults come from built-in values, overridden by the config file
// (REEL_CONFIG or --config), overridden by flags.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/reel-foundation/reel/lib/config"
	"github.com/reel-foundation/reel/lib/pipeline"
	"github.com/reel-foundation/reel/lib/recording"
	"github.com/reel-foundation/reel/lib/version"
	"github.com/reel-foundation/reel/lib/video"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		outputPath string
		configPath string
		codec      string
		width      int
		height     int
		bitrate    int
		frameRate  int
		fit        string
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("reel-transcode", pflag.ContinueOnError)
	flagSet.StringVarP(&outputPath, "output", "o", "", "output video path (default: recording path with codec suffix)")
	flagSet.StringVar(&configPath, "config", "", "path to reel.yaml config file (default: $REEL_CONFIG)")
	flagSet.StringVar(&codec, "codec", "", "video codec (mpeg4, libx264, ...)")
	flagSet.IntVar(&width, "width", 0, "output width in pixels")
	flagSet.IntVar(&height, "height", 0, "output height in pixels")
	flagSet.IntVar(&bitrate, "bitrate", 0, "target bitrate in bits per second")
	flagSet.IntVar(&frameRate, "framerate", 0, "output frame rate in frames per second")
	flagSet.StringVar(&fit, "fit", "", "aspect handling: letterbox or stretch")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other reel binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("reel-transcode")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one recording path, got %d arguments", len(args))
	}
	recordingPath := args[0]

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("codec") {
		cfg.Output.Codec = codec
	}
	if flagSet.Changed("width") {
		cfg.Output.Width = width
	}
	if flagSet.Changed("height") {
		cfg.Output.Height = height
	}
	if flagSet.Changed("bitrate") {
		cfg.Output.Bitrate = bitrate
	}
	if flagSet.Changed("framerate") {
		cfg.Output.FrameRate = frameRate
	}
	if flagSet.Changed("fit") {
		cfg.Output.Fit = fit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Level, verbose)

	if outputPath == "" {
		outputPath = defaultOutputPath(recordingPath, cfg.Output.Codec)
	}

	fitPolicy, err := video.ParseFitPolicy(cfg.Output.Fit)
	if err != nil {
		return err
	}

	source, err := recording.Open(recordingPath)
	if err != nil {
		return err
	}
	defer source.Close()
	logger.Info("transcoding recording",
		"input", recordingPath, "compression", source.Format().String(),
		"output", outputPath, "codec", cfg.Output.Codec,
		"size", fmt.Sprintf("%dx%d", cfg.Output.Width, cfg.Output.Height),
		"framerate", cfg.Output.FrameRate)

	encoder, err := video.NewEncoder(video.EncoderConfig{
		Path:      outputPath,
		Codec:     cfg.Output.Codec,
		Width:     cfg.Output.Width,
		Height:    cfg.Output.Height,
		Bitrate:   cfg.Output.Bitrate,
		FrameRate: cfg.Output.FrameRate,
		Fit:       fitPolicy,
	})
	if err != nil {
		return fmt.Errorf("initializing encoder: %w", err)
	}

	runErr := pipeline.New(encoder, pipeline.Config{
		FrameRate: cfg.Output.FrameRate,
		Logger:    logger,
	}).Run(source)
	closeErr := encoder.Close()

	if runErr != nil {
		// Partial output is left on disk; it may still be playable up
		// to the point of failure.
		return fmt.Errorf("transcoding %s: %w", recordingPath, runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("finalizing %s: %w", outputPath, closeErr)
	}
	logger.Info("transcoding complete", "output", outputPath)
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// defaultOutputPath derives the output file name from the recording
// path: the compression suffix (if any) is dropped and a container
// suffix for the codec is appended.
func defaultOutputPath(recordingPath, codec string) string {
	base := recordingPath
	for _, suffix := range []string{".gz", ".zst", ".lz4"} {
		base = strings.TrimSuffix(base, suffix)
	}
	switch codec {
	case "libx264", "libx265":
		return base + ".mp4"
	case "libvpx", "libvpx-vp9":
		return base + ".webm"
	default:
		return base + ".m4v"
	}
}

func newLogger(level string, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Transcode a session recording into a video file.

The recording is replayed against an in-memory display and resampled
to a constant frame rate. Compressed recordings (gzip, zstd, lz4) are
decompressed transparently.

Usage:
  reel-transcode [flags] <recording>

Examples:
  # Transcode with defaults (mpeg4, 640x480, 25 fps)
  reel-transcode session.rec

  # High-quality H.264 at the recording's native geometry
  reel-transcode --codec libx264 --width 1920 --height 1080 -o session.mp4 session.rec.gz

Flags:
%s`, flagSet.FlagUsages())
}

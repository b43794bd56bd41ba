// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// reel-inspect summarizes a session recording without transcoding it:
// instruction counts per opcode, session duration, declared display
// geometry and a content digest. Useful for triaging a recording
// before committing to a full encode, and for verifying that archived
// recordings are intact.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/reel-foundation/reel/lib/protocol"
	"github.com/reel-foundation/reel/lib/recording"
	"github.com/reel-foundation/reel/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// summary accumulates everything a single pass over the recording can
// tell without maintaining display state.
type summary struct {
	instructions  int
	opcodeCounts  map[string]int
	firstSync     int64
	lastSync      int64
	sawSync       bool
	rootWidth     int
	rootHeight    int
	truncated     bool
	truncationErr error
}

func run() error {
	var timingPath string

	flagSet := pflag.NewFlagSet("reel-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&timingPath, "timing", "", "timing companion file to summarize alongside the recording")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("reel-inspect")
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

	digest, err := recording.HashFile(recordingPath)
	if err != nil {
		return err
	}

	source, err := recording.Open(recordingPath)
	if err != nil {
		return err
	}
	defer source.Close()

	result, err := scan(source)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", recordingPath, err)
	}

	fmt.Printf("recording:    %s\n", recordingPath)
	fmt.Printf("compression:  %s\n", source.Format())
	fmt.Printf("digest:       blake3:%s\n", recording.FormatDigest(digest))
	fmt.Printf("instructions: %d\n", result.instructions)
	if result.rootWidth > 0 || result.rootHeight > 0 {
		fmt.Printf("display:      %dx%d\n", result.rootWidth, result.rootHeight)
	} else {
		fmt.Printf("display:      never sized\n")
	}
	if result.sawSync {
		fmt.Printf("duration:     %.3fs\n", float64(result.lastSync-result.firstSync)/1000)
	} else {
		fmt.Printf("duration:     no sync instructions\n")
	}
	if result.truncated {
		fmt.Printf("warning:      recording is truncated (%v)\n", result.truncationErr)
	}

	fmt.Printf("opcodes:\n")
	opcodes := make([]string, 0, len(result.opcodeCounts))
	for opcode := range result.opcodeCounts {
		opcodes = append(opcodes, opcode)
	}
	sort.Strings(opcodes)
	for _, opcode := range opcodes {
		fmt.Printf("  %-10s %d\n", opcode, result.opcodeCounts[opcode])
	}

	if timingPath != "" {
		if err := reportTiming(timingPath); err != nil {
			return err
		}
	}
	return nil
}

// scan drains the recording, tallying instructions. Unlike transcoding,
// inspection tolerates truncation: whatever decoded before the corrupt
// tail is still reported, with a warning.
func scan(source io.Reader) (*summary, error) {
	result := &summary{opcodeCounts: make(map[string]int)}
	var parser protocol.Parser
	chunk := make([]byte, 64*1024)
	for {
		read, readErr := source.Read(chunk)
		if read > 0 {
			parser.Feed(chunk[:read])
			for {
				instruction, err := parser.Next()
				if errors.Is(err, protocol.ErrIncomplete) {
					break
				}
				if err != nil {
					result.truncated = true
					result.truncationErr = err
					return result, nil
				}
				tally(result, instruction)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}
	if err := parser.Close(); err != nil {
		result.truncated = true
		result.truncationErr = err
	}
	return result, nil
}

func tally(result *summary, instruction protocol.Instruction) {
	result.instructions++
	result.opcodeCounts[instruction.Opcode]++

	switch instruction.Opcode {
	case "sync":
		if len(instruction.Args) < 1 {
			return
		}
		timestamp, err := strconv.ParseInt(instruction.Args[0], 10, 64)
		if err != nil {
			return
		}
		if !result.sawSync {
			result.firstSync = timestamp
			result.sawSync = true
		}
		result.lastSync = timestamp
	case "size":
		if len(instruction.Args) < 3 || instruction.Args[0] != "0" {
			return
		}
		width, widthErr := strconv.Atoi(instruction.Args[1])
		height, heightErr := strconv.Atoi(instruction.Args[2])
		if widthErr == nil && heightErr == nil {
			result.rootWidth = width
			result.rootHeight = height
		}
	}
}

func reportTiming(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening timing file: %w", err)
	}
	defer file.Close()

	entries, err := recording.ParseTiming(file)
	if err != nil {
		return err
	}
	fmt.Printf("timing:\n")
	fmt.Printf("  entries:  %d\n", len(entries))
	fmt.Printf("  duration: %.3fs\n", recording.TotalDuration(entries).Seconds())
	fmt.Printf("  bytes:    %d\n", recording.TotalBytes(entries))
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Summarize a session recording without transcoding it.

Reports per-opcode instruction counts, session duration (from sync
timestamps), the declared display geometry and a BLAKE3 content
digest. Truncated recordings are reported, not rejected.

Usage:
  reel-inspect [flags] <recording>

Examples:
  # Basic summary
  reel-inspect session.rec

  # Include the capture tool's timing companion file
  reel-inspect --timing session.timing session.rec

Flags:
%s`, flagSet.FlagUsages())
}

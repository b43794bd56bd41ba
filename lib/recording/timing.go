// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TimingEntry is one line of a timing companion file: after Elapsed of
// session time, Bytes more bytes of the recording had been captured.
type TimingEntry struct {
	Elapsed time.Duration
	Bytes   int64
}

// ParseTiming reads a timing companion file. Each line carries a
// fractional elapsed-seconds value and a byte count separated by a
// space; capture tools in the typescript lineage write this format.
func ParseTiming(reader io.Reader) ([]TimingEntry, error) {
	var entries []TimingEntry
	scanner := bufio.NewScanner(reader)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("timing line %d: want 2 fields, got %d", line, len(fields))
		}
		seconds, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("timing line %d: invalid elapsed time %q", line, fields[0])
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("timing line %d: invalid byte count %q", line, fields[1])
		}
		entries = append(entries, TimingEntry{
			Elapsed: time.Duration(seconds * float64(time.Second)),
			Bytes:   count,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading timing file: %w", err)
	}
	return entries, nil
}

// TotalDuration returns the cumulative session time covered by the
// timing entries.
func TotalDuration(entries []TimingEntry) time.Duration {
	var total time.Duration
	for _, entry := range entries {
		total += entry.Elapsed
	}
	return total
}

// TotalBytes returns the cumulative byte count covered by the timing
// entries.
func TotalBytes(entries []TimingEntry) int64 {
	var total int64
	for _, entry := range entries {
		total += entry.Bytes
	}
	return total
}

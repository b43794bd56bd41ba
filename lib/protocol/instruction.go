// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strings"
)

// Instruction is one decoded instruction: an opcode and its ordered
// arguments. Instructions are immutable once decoded; the dispatcher
// consumes each exactly once.
type Instruction struct {
	// Opcode identifies which display mutation (or control operation)
	// this instruction performs, e.g. "size", "cfill", "sync".
	Opcode string

	// Args are the raw argument strings in protocol order. Numeric
	// interpretation is the dispatcher's job — the framing layer does
	// not know which opcodes take numbers.
	Args []string
}

// String renders the instruction in wire format. Useful in diagnostics
// and for constructing test recordings.
func (instruction Instruction) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d.%s", len(instruction.Opcode), instruction.Opcode)
	for _, argument := range instruction.Args {
		fmt.Fprintf(&builder, ",%d.%s", len(argument), argument)
	}
	builder.WriteByte(';')
	return builder.String()
}

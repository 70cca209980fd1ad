// Package main provides the entry point for rv32sim.
// rv32sim models the writeback stage of an RV32I hart on top of Akita
// memory components.
//
// For the trace-replay CLI, use: go run ./cmd/rvwb
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32I writeback model")
	fmt.Println("Built on Akita memory components")
	fmt.Println("")
	fmt.Println("Usage: rvwb [options] <trace.jsonl>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to system configuration JSON file")
	fmt.Println("  -elf       Preload memory from an RV32 ELF image")
	fmt.Println("  -probe     Probe policy (none, memory, always)")
	fmt.Println("  -v         Trace every writeback")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvwb' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvwb' instead.")
	}
}

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/pipeline"
)

// record is one line of a trace file.
type record struct {
	Op     insts.Op `json:"op"`
	Rd     uint8    `json:"rd"`
	Rs1    uint32   `json:"rs1"`
	Rs2    uint32   `json:"rs2"`
	ImmZ   uint32   `json:"imm_z"`
	CSR    uint16   `json:"csr"`
	ALUOut uint32   `json:"alu_out"`
}

func (r record) stages() (pipeline.DecodeResult, pipeline.ExecuteResult) {
	return pipeline.DecodeResult{
			Opcode:  r.Op,
			Rd:      r.Rd,
			Rs1Data: r.Rs1,
			Rs2Data: r.Rs2,
			ImmZ:    r.ImmZ,
			CSR:     r.CSR,
		}, pipeline.ExecuteResult{
			ALUOut: r.ALUOut,
		}
}

// replay commits every record read from r and returns the number of
// instructions retired. It stops at the first malformed line or fault.
func replay(sys *config.System, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	retired := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var rec record
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			return retired, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.Op == insts.OpUnknown {
			return retired, fmt.Errorf("line %d: missing op", lineNo)
		}

		decode, execute := rec.stages()
		if err := sys.Step(decode, execute); err != nil {
			return retired, fmt.Errorf("line %d: %w", lineNo, err)
		}
		retired++
	}

	if err := scanner.Err(); err != nil {
		return retired, fmt.Errorf("failed to read trace: %w", err)
	}

	return retired, nil
}

// dumpState prints every non-zero register and every written CSR.
func dumpState(w io.Writer, sys *config.System) {
	regs := sys.Regs.Snapshot()
	for i := 1; i < emu.NumXRegs; i++ {
		if regs[i] != 0 {
			fmt.Fprintf(w, "x%-2d = 0x%08X\n", i, regs[i])
		}
	}
	for _, addr := range sys.CSRs.Addresses() {
		fmt.Fprintf(w, "csr[0x%03X] = 0x%08X\n", addr, sys.CSRs.Read(addr))
	}
	if sys.DataCache != nil {
		stats := sys.DataCache.Stats()
		fmt.Fprintf(w, "dcache: reads=%d writes=%d hits=%d misses=%d writebacks=%d\n",
			stats.Reads, stats.Writes, stats.Hits, stats.Misses, stats.Writebacks)
	}
}

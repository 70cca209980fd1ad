// Package main provides rvwb, a trace-replay driver for the RV32I writeback
// stage. It reads one decoded and executed instruction per line and commits
// each of them to a freshly reset hart.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/loader"
)

var (
	configPath = flag.String("config", "", "Path to system configuration JSON file")
	elfPath    = flag.String("elf", "", "Preload memory with the segments of an RV32 ELF image")
	probe      = flag.String("probe", "", "Override the probe policy (none, memory, always)")
	verbose    = flag.Bool("v", false, "Trace every writeback")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvwb [options] <trace.jsonl>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *probe != "" {
		cfg.Probe = *probe
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	sys, err := cfg.Build(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building system: %v\n", err)
		os.Exit(1)
	}

	if *elfPath != "" {
		prog, err := loader.Load(*elfPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading ELF: %v\n", err)
			os.Exit(1)
		}
		if err := sys.LoadProgram(prog); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading ELF: %v\n", err)
			os.Exit(1)
		}
		logger.WithFields(logrus.Fields{
			"elf":      *elfPath,
			"entry":    fmt.Sprintf("0x%08x", prog.EntryPoint),
			"segments": len(prog.Segments),
		}).Info("image loaded")
	}

	tracePath := flag.Arg(0)
	f, err := os.Open(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	retired, runErr := replay(sys, f)
	if err := sys.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing data cache: %v\n", err)
	}

	logger.WithFields(logrus.Fields{
		"trace":   tracePath,
		"retired": retired,
	}).Info("replay finished")
	dumpState(os.Stdout, sys)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Writeback error: %v\n", runErr)
		os.Exit(1)
	}
}

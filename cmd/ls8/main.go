// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

// Process exit statuses.
const (
	EXIT_OK        = 0 // Normal halt.
	EXIT_USAGE     = 1 // Wrong argument count, or bad flags.
	EXIT_NOT_FOUND = 2 // Program file not found.
	EXIT_LOAD      = 3 // Program file malformed.
	EXIT_RUNTIME   = 4 // Fatal execution fault.
)

func main() {
	os.Exit(run(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

func usage(name string, flags *flag.FlagSet, stderr io.Writer) {
	fmt.Fprintln(stderr, f("Must specify a file to run."))
	fmt.Fprintln(stderr, f("Usage: %v [flags] filename", name))
	flags.PrintDefaults()
}

// run executes the LS8 program named in args, and returns the exit status.
func run(name string, args []string, stdout, stderr io.Writer) int {
	var trace bool
	var verbose bool
	var assemble bool
	var faultStatus int

	logger := log.New(stderr, name+": ", 0)

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&trace, "t", false, "Trace every instruction to stderr")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")
	flags.BoolVar(&assemble, "a", false, "Assemble the file before running (default for .asm files)")
	flags.IntVar(&faultStatus, "fault-status", EXIT_OK, "Exit status when stopped by an invalid instruction")

	err := flags.Parse(args)
	if err != nil {
		return EXIT_USAGE
	}

	if flags.NArg() != 1 {
		usage(name, flags, stderr)
		return EXIT_USAGE
	}

	path := flags.Arg(0)

	inf, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Print(f("%v: file not found", path))
			return EXIT_NOT_FOUND
		}
		logger.Printf("%v: %v", path, err)
		return EXIT_LOAD
	}
	defer inf.Close()

	var prog *cpu.Program
	if assemble || strings.HasSuffix(path, ".asm") {
		asm := &cpu.Assembler{Verbose: verbose}
		prog, err = asm.Parse(inf)
	} else {
		ld := &cpu.Loader{Verbose: verbose}
		prog, err = ld.Read(inf)
	}
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return EXIT_LOAD
	}

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = verbose
	emu.Tape.Output = stdout
	if trace {
		emu.SetTrace(stderr)
	}

	err = emu.Reset()
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return EXIT_LOAD
	}

	err = emu.Run()
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return EXIT_RUNTIME
	}

	if emu.Faulted() {
		logger.Printf("%v: line %d: %v", path, emu.LineNo(), emu.Cpu.Fault)
		return faultStatus
	}

	return EXIT_OK
}

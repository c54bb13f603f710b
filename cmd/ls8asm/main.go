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
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

// Process exit statuses.
const (
	EXIT_OK        = 0 // Assembled.
	EXIT_USAGE     = 1 // Wrong argument count, or bad flags.
	EXIT_NOT_FOUND = 2 // Source file not found.
	EXIT_LOAD      = 3 // Source file malformed.
	EXIT_OUTPUT    = 4 // Output could not be written.
)

// defines collects -D NAME=VALUE flags.
type defines map[string]string

func (d defines) String() string {
	var list []string
	for name, value := range d {
		list = append(list, name+"="+value)
	}
	return strings.Join(list, ",")
}

func (d defines) Set(text string) error {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 {
		return errors.New(f("define '%v' is not NAME=VALUE", text))
	}
	d[name] = value
	return nil
}

func main() {
	os.Exit(run(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

// run assembles the source named in args, and returns the exit status.
func run(name string, args []string, stdout, stderr io.Writer) int {
	var output string
	var verbose bool
	predefine := defines{}

	logger := log.New(stderr, name+": ", 0)

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&output, "o", "-", "Binary output")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")
	flags.Var(predefine, "D", "Predefine an equate, NAME=VALUE")

	err := flags.Parse(args)
	if err != nil {
		return EXIT_USAGE
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, f("Usage: %v [flags] source.asm", name))
		flags.PrintDefaults()
		return EXIT_USAGE
	}

	source := flags.Arg(0)

	inf, err := os.Open(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Print(f("%v: file not found", source))
			return EXIT_NOT_FOUND
		}
		logger.Printf("%v: %v", source, err)
		return EXIT_LOAD
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	for equ, value := range predefine {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(inf)
	if err != nil {
		logger.Printf("%v: %v", source, err)
		return EXIT_LOAD
	}

	if output == "-" {
		err = prog.WriteBinary(stdout)
	} else {
		err = writeFile(output, prog)
	}
	if err != nil {
		logger.Printf("%v: %v", output, err)
		return EXIT_OUTPUT
	}

	return EXIT_OK
}

// writeFile writes the program binary to a newly created file.
func writeFile(path string, prog *cpu.Program) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return
	}

	err = writeClose(file, prog)
	return
}

// writeClose writes the program binary, then closes the writer.
func writeClose(w io.WriteCloser, prog *cpu.Program) error {
	err := prog.WriteBinary(w)
	return errors.Join(err, w.Close())
}

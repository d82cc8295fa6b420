// Command loxx runs Lox source files or, with no arguments, a REPL.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	pkgerrors "github.com/pkg/errors"

	"github.com/loxxlang/loxx"
)

// sysexits-style exit codes, the same ones cpplox2 defines in exits.cpp.
const (
	exitOk             = 0
	exitIncorrectUsage = 64
	exitCompileError   = 65
	exitRuntimeError   = 70
	exitIOError        = 74
)

func main() {
	trace := flag.Bool("trace", false, "trace each instruction as it executes")
	printCode := flag.Bool("print-code", false, "disassemble compiled chunks before running")
	gcLog := flag.Bool("gc-log", false, "log every GC allocation, mark, blacken and sweep")
	gcStress := flag.Bool("gc-stress", false, "run a full collection before every allocation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: loxx [path]")
	}
	flag.Parse()

	loxx.SetDebugFlags(*trace, *printCode, *gcLog, *gcStress)

	switch flag.NArg() {
	case 0:
		runRepl()
	case 1:
		runFile(flag.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, "Usage: loxx [path]")
		os.Exit(exitIncorrectUsage)
	}
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.Wrapf(err, "loxx: could not read %q", path))
		os.Exit(exitIOError)
	}

	vm := loxx.NewVM()
	switch err := vm.Interpret(source); {
	case errors.Is(err, loxx.ErrInterpretCompileError):
		os.Exit(exitCompileError)
	case errors.Is(err, loxx.ErrInterpretRuntimeError):
		os.Exit(exitRuntimeError)
	}
}

func runRepl() {
	vm := loxx.NewVM()
	scanner := bufio.NewScanner(os.Stdin)

	prompt := func() {
		if isatty.IsTerminal(os.Stdin.Fd()) {
			fmt.Print("> ")
		}
	}

	prompt()
	for scanner.Scan() {
		vm.Interpret(scanner.Bytes())
		prompt()
	}
	fmt.Println("exit")
	os.Exit(exitOk)
}

// Command cyberctl constructs a Cyber 962 system and drives it from an
// interactive operator console.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/cyber962/cyber962/console"
	"github.com/cyber962/cyber962/internal/logging"
	"github.com/cyber962/cyber962/system"
)

func main() {
	optMemory := getopt.IntLong("memory", 'm', 64, "Central Memory size, in MiB (64/128/192/256)")
	optCPs := getopt.IntLong("cps", 'c', 1, "Central Processors (1-2)")
	optIOUs := getopt.IntLong("ious", 'i', 1, "Input/Output Units (1-3)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cyberctl: "+err.Error())
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	logger := logging.New(file, &slog.HandlerOptions{Level: programLevel}, false)
	slog.SetDefault(logger)

	sys, err := system.Create("cyber962", *optMemory<<20, *optCPs, *optIOUs, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cyberctl: "+err.Error())
		os.Exit(1)
	}

	console.Run(sys)

	sys.TerminateAll()
}

// Package console implements the operator console's command line:
// start/stop/show for Central Processors and Peripheral Processors,
// and hex dumps of Central Memory and PP local storage, addressed at a
// constructed system.System. It carries zero topology-assembly logic —
// it only starts, stops, and inspects a system that already exists.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cyber962/cyber962/internal/cpu180"
	"github.com/cyber962/cyber962/internal/pp962"
	"github.com/cyber962/cyber962/internal/threadctl"
	"github.com/cyber962/cyber962/system"
	"github.com/cyber962/cyber962/util/hex"
)

type cmd struct {
	name     string
	min      int
	process  func(*cmdLine, *system.System) (bool, error)
	complete func(*cmdLine, *system.System) []string
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "start", min: 3, process: start, complete: completeTarget},
	{name: "stop", min: 3, process: stop, complete: completeTarget},
	{name: "show", min: 2, process: show, complete: completeTarget},
	{name: "dump", min: 2, process: dump, complete: completeTarget},
	{name: "quit", min: 1, process: quit},
}

// ProcessCommand parses and executes one command line against sys. The
// first return value reports whether the console should exit.
func ProcessCommand(commandLine string, sys *system.System) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].process(&line, sys)
}

// CompleteCmd returns the completions liner should offer for a
// partially typed command line.
func CompleteCmd(commandLine string, sys *system.System) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	if !line.isEOL() && line.line[line.pos] == ' ' {
		line.skipSpace()
		match := matchList(name)
		if len(match) != 1 || match[0].complete == nil {
			return nil
		}
		return match[0].complete(&line, sys)
	}

	match := matchList(name)
	names := make([]string, len(match))
	for i, m := range match {
		names[i] = m.name
	}
	return names
}

func matchCommand(m cmd, name string) bool {
	if len(name) > len(m.name) {
		return false
	}
	for i := range name {
		if m.name[i] != name[i] {
			return false
		}
	}
	return len(name) >= m.min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, name) {
			match = append(match, m)
		}
	}
	return match
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool { return line.pos >= len(line.line) }

// getWord reads the next run of letters, lower-cased (command and
// sub-target names are case-insensitive).
func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && unicode.IsLetter(rune(line.line[line.pos])) {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

// getUint reads the next run of digits as a base-10 unsigned integer.
func (line *cmdLine) getUint() (uint64, bool) {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && unicode.IsDigit(rune(line.line[line.pos])) {
		line.pos++
	}
	if line.pos == start {
		return 0, false
	}
	v, err := strconv.ParseUint(line.line[start:line.pos], 10, 32)
	return v, err == nil
}

func stateName(state int) string {
	switch state {
	case threadctl.Stopped:
		return "stopped"
	case threadctl.Started:
		return "started"
	case threadctl.Running:
		return "running"
	case threadctl.Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", state)
	}
}

// target resolves the "cp <n>" or "pp <iou> <n>" or "all" selector that
// start/stop/show/dump commands all share.
type target struct {
	all bool
	cp  *cpu180.CP
	pp  *pp962.PP
}

func resolveTarget(line *cmdLine, sys *system.System) (target, error) {
	kind := line.getWord()
	switch kind {
	case "all", "":
		return target{all: true}, nil
	case "cp":
		n, ok := line.getUint()
		if !ok || int(n) >= sys.CentralProcessorCount() {
			return target{}, fmt.Errorf("invalid CP index")
		}
		return target{cp: sys.CentralProcessor(int(n))}, nil
	case "pp":
		iouN, ok := line.getUint()
		if !ok || int(iouN) >= sys.InputOutputUnitCount() {
			return target{}, fmt.Errorf("invalid IOU index")
		}
		ppN, ok := line.getUint()
		if !ok || ppN >= 20 {
			return target{}, fmt.Errorf("invalid PP index")
		}
		return target{pp: sys.InputOutputUnit(int(iouN)).PP(int(ppN))}, nil
	default:
		return target{}, fmt.Errorf("unknown target: %s", kind)
	}
}

func start(line *cmdLine, sys *system.System) (bool, error) {
	t, err := resolveTarget(line, sys)
	if err != nil {
		return false, err
	}
	switch {
	case t.all:
		sys.StartAll()
	case t.cp != nil:
		t.cp.Start()
	case t.pp != nil:
		t.pp.Start()
	}
	return false, nil
}

func stop(line *cmdLine, sys *system.System) (bool, error) {
	t, err := resolveTarget(line, sys)
	if err != nil {
		return false, err
	}
	switch {
	case t.all:
		sys.StopAll()
	case t.cp != nil:
		t.cp.Stop()
	case t.pp != nil:
		t.pp.Stop()
	}
	return false, nil
}

func show(line *cmdLine, sys *system.System) (bool, error) {
	t, err := resolveTarget(line, sys)
	if err != nil {
		return false, err
	}
	switch {
	case t.cp != nil:
		fmt.Printf("CP: state=%s P=0x%X A0=0x%X X0=0x%X\n",
			stateName(t.cp.State()), t.cp.P, t.cp.GetA(0), t.cp.GetX(0))
	case t.pp != nil:
		fmt.Printf("PP: state=%s A=0o%o P=0o%o R=0o%o\n",
			stateName(t.pp.State()), t.pp.A, t.pp.P, t.pp.R)
	default:
		for i := 0; i < sys.CentralProcessorCount(); i++ {
			cp := sys.CentralProcessor(i)
			fmt.Printf("CP%d: state=%s P=0x%X\n", i, stateName(cp.State()), cp.P)
		}
		for i := 0; i < sys.InputOutputUnitCount(); i++ {
			fmt.Printf("IOU%d: 20 PPs, 20 channels\n", i)
		}
	}
	return false, nil
}

// dump handles "dump mem <addr> <count>" and "dump pp <iou> <n> <addr> <count>".
func dump(line *cmdLine, sys *system.System) (bool, error) {
	kind := line.getWord()
	switch kind {
	case "mem":
		addr, ok := line.getUint()
		if !ok {
			return false, errors.New("dump mem requires an address")
		}
		count, ok := line.getUint()
		if !ok || count == 0 {
			return false, errors.New("dump mem requires a byte count")
		}
		port := sys.InspectorPort()
		buf := make([]byte, count)
		port.ReadBytesPhysical(addr, buf)
		var b strings.Builder
		hex.FormatBytes(&b, true, buf)
		fmt.Println(b.String())
	case "pp":
		iouN, ok := line.getUint()
		if !ok || int(iouN) >= sys.InputOutputUnitCount() {
			return false, errors.New("invalid IOU index")
		}
		ppN, ok := line.getUint()
		if !ok || ppN >= 20 {
			return false, errors.New("invalid PP index")
		}
		addr, ok := line.getUint()
		if !ok {
			return false, errors.New("dump pp requires an address")
		}
		count, ok := line.getUint()
		if !ok || count == 0 {
			return false, errors.New("dump pp requires a word count")
		}
		pp := sys.InputOutputUnit(int(iouN)).PP(int(ppN))
		words := make([]uint16, count)
		for i := range words {
			words[i] = pp.ReadWord(uint16(int(addr) + i))
		}
		var b strings.Builder
		hex.FormatHalf(&b, true, words)
		fmt.Println(b.String())
	default:
		return false, errors.New("dump requires mem or pp")
	}
	return false, nil
}

func quit(_ *cmdLine, _ *system.System) (bool, error) {
	return true, nil
}

func completeTarget(line *cmdLine, _ *system.System) []string {
	leading := line.line[:line.pos]
	for _, word := range []string{"cp", "pp", "all", "mem"} {
		if strings.HasPrefix(word, strings.ToLower(strings.TrimSpace(line.line[line.pos:]))) {
			return []string{leading + word + " "}
		}
	}
	return nil
}

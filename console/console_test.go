package console

import (
	"testing"

	"github.com/cyber962/cyber962/internal/cmem"
	"github.com/cyber962/cyber962/internal/threadctl"
	"github.com/cyber962/cyber962/system"
)

func newTestSystem(t *testing.T) *system.System {
	t.Helper()
	sys, err := system.Create("t", cmem.Capacity64MiB, 1, 1, nil)
	if err != nil {
		t.Fatalf("system.Create: %v", err)
	}
	return sys
}

func TestQuitRequestsExit(t *testing.T) {
	sys := newTestSystem(t)
	quit, err := ProcessCommand("quit", sys)
	if err != nil {
		t.Fatalf("ProcessCommand(quit): %v", err)
	}
	if !quit {
		t.Fatal("quit command did not request exit")
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("frobnicate", sys); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestStartStopCP(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("start cp 0", sys); err != nil {
		t.Fatalf("start cp 0: %v", err)
	}
	if got := sys.CentralProcessor(0).State(); got != threadctl.Running && got != threadctl.Started {
		t.Fatalf("CP state after start = %d", got)
	}
	if _, err := ProcessCommand("stop cp 0", sys); err != nil {
		t.Fatalf("stop cp 0: %v", err)
	}
}

func TestStartStopPP(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("start pp 0 3", sys); err != nil {
		t.Fatalf("start pp 0 3: %v", err)
	}
	if _, err := ProcessCommand("stop pp 0 3", sys); err != nil {
		t.Fatalf("stop pp 0 3: %v", err)
	}
}

func TestStartAll(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("start all", sys); err != nil {
		t.Fatalf("start all: %v", err)
	}
	if _, err := ProcessCommand("stop all", sys); err != nil {
		t.Fatalf("stop all: %v", err)
	}
}

func TestShowCPAndPP(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("show cp 0", sys); err != nil {
		t.Fatalf("show cp 0: %v", err)
	}
	if _, err := ProcessCommand("show pp 0 0", sys); err != nil {
		t.Fatalf("show pp 0 0: %v", err)
	}
	if _, err := ProcessCommand("show", sys); err != nil {
		t.Fatalf("show: %v", err)
	}
}

func TestDumpMemAndPP(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("dump mem 0 16", sys); err != nil {
		t.Fatalf("dump mem: %v", err)
	}
	if _, err := ProcessCommand("dump pp 0 0 0 8", sys); err != nil {
		t.Fatalf("dump pp: %v", err)
	}
}

func TestInvalidTargetErrors(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("start cp 5", sys); err == nil {
		t.Fatal("expected an error for an out-of-range CP index")
	}
	if _, err := ProcessCommand("start pp 9 0", sys); err == nil {
		t.Fatal("expected an error for an out-of-range IOU index")
	}
}

func TestCommandPrefixMatching(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := ProcessCommand("sto cp 0", sys); err != nil {
		t.Fatalf("sto cp 0: %v", err)
	}
}

func TestCompleteCmdOffersCommandNames(t *testing.T) {
	sys := newTestSystem(t)
	got := CompleteCmd("sh", sys)
	if len(got) != 1 || got[0] != "show" {
		t.Fatalf("CompleteCmd(sh) = %v, want [show]", got)
	}
}

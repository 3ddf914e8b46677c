package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/cyber962/cyber962/system"
)

// Run drives an interactive operator console against sys until the
// operator types "quit" or aborts the prompt (Ctrl-D/Ctrl-C).
func Run(sys *system.System) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return CompleteCmd(partial, sys)
	})

	for {
		command, err := line.Prompt(sys.Identifier() + "> ")
		if err == nil {
			line.AppendHistory(command)
			quit, err := ProcessCommand(command, sys)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading console line", "error", err)
		return
	}
}

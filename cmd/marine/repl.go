package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/fluencelabs/marine-sub002/pkg/service"
)

// Repl is an interactive shell over an already-loaded Service: a
// liner-backed read-eval-print loop with a persisted history file and
// a one-line command dispatcher.
type Repl struct {
	svc         *service.Service
	historyPath string
}

// NewRepl builds a Repl over svc, history kept alongside the other
// dotfiles in the user's home directory.
func NewRepl(svc *service.Service) *Repl {
	path := ".marine-history"
	if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, path)
	}
	return &Repl{svc: svc, historyPath: path}
}

// Loop runs until the user types "exit", presses Ctrl+C, or reaches
// EOF on stdin.
func (r *Repl) Loop() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	r.loadHistory(line)

	fmt.Println(`marine interactive shell. Commands:
  call <module> <function> [args...]
  interface
  memory-stats
  exit`)

	for {
		input, err := line.Prompt("> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println("Exiting")
			break
		}
		if err != nil {
			fmt.Println("error (fatal):", err)
			os.Exit(1)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if r.oneShot(input) {
			fmt.Println("Exiting")
			break
		}
	}
	r.saveHistory(line)
}

// oneShot evaluates a single line and reports whether the loop should
// exit.
func (r *Repl) oneShot(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "exit", "quit":
		return true
	case "interface":
		printInterface(r.svc)
	case "memory-stats":
		fmt.Print(r.svc.ModuleMemoryStats().String())
	case "call":
		if len(fields) < 3 {
			fmt.Println("usage: call <module> <function> [args...]")
			return false
		}
		if err := runCall(context.Background(), r.svc, fields[1], fields[2], fields[3:]); err != nil {
			fmt.Println("error:", err)
		}
	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
	return false
}

func (r *Repl) loadHistory(line *liner.State) {
	f, err := os.Open(r.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	line.ReadHistory(f)
}

func (r *Repl) saveHistory(line *liner.State) {
	f, err := os.Create(r.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/islml/tilde/internal/editor"
	"github.com/islml/tilde/internal/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.New(os.Stderr, "tilde: ", 0)
	t := term.New(os.Stdin, os.Stdout)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigs)
	go handleSignals(sigs, t, os.Stdout, logger, os.Exit)

	e := editor.New(t, os.Stdin, os.Stdout, logger)
	return e.Run()
}

// handleSignals waits for a termination signal, leaves the terminal
// readable and exits with 128+signal.
func handleSignals(sigs <-chan os.Signal, t *term.Term, out io.Writer, logger *log.Logger, exit func(int)) {
	sig, ok := <-sigs
	if !ok {
		return
	}
	_ = editor.ClearScreen(out)
	if err := t.ExitRawMode(); err != nil {
		logger.Printf("Error: exit raw mode: %v", err)
	}
	logger.Printf("terminated by %v", sig)

	code := 1
	if s, ok := sig.(syscall.Signal); ok {
		code = 128 + int(s)
	}
	exit(code)
}

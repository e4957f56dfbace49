package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"ycli/config"
)

const (
	inputPrompt   = "> "
	multiLineOpen = "<<EOF"
	multiLineEnd  = "EOF"
)

// ErrInterrupted is returned when the user aborts a prompt with Ctrl-C.
var ErrInterrupted = errors.New("input interrupted")

// LineReader reads one line of user input. Implementations return io.EOF
// when input is closed and ErrInterrupted on Ctrl-C.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// TerminalReader is a LineReader with line editing and history.
type TerminalReader struct {
	state       *liner.State
	historyFile string
}

// NewTerminalReader opens the terminal for line editing. History is loaded
// from and saved to historyFile when it is set.
func NewTerminalReader(historyFile string) *TerminalReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	r := &TerminalReader{state: state, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *TerminalReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrInterrupted
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves history and restores the terminal.
func (r *TerminalReader) Close() error {
	if r.historyFile != "" {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			if _, err := r.state.WriteHistory(f); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[Input] failed to save history: %v", err)
			}
			f.Close()
		}
	}
	return r.state.Close()
}

// UserInput is one logical input. Lines counts the terminal lines it
// occupied, including the <<EOF and EOF markers.
type UserInput struct {
	Text  string
	Lines int
}

// Input reads user messages and answers.
type Input struct {
	reader  LineReader
	console *Console
}

func NewInput(reader LineReader, console *Console) *Input {
	return &Input{reader: reader, console: console}
}

// GetInput reads a single line, or a block of lines between <<EOF and EOF.
func (in *Input) GetInput() (UserInput, error) {
	return in.read(inputPrompt)
}

// GetBlock reads one input with a custom prompt, accepting the same
// multi-line syntax as GetInput.
func (in *Input) GetBlock(prompt string) (UserInput, error) {
	return in.read(prompt)
}

func (in *Input) read(prompt string) (UserInput, error) {
	text, err := in.reader.Prompt(prompt)
	if err != nil {
		return UserInput{}, err
	}
	text = strings.TrimRight(text, " \t\r\n")
	if text != multiLineOpen {
		return UserInput{Text: text, Lines: 1}, nil
	}

	var lines []string
	for {
		line, err := in.reader.Prompt("")
		if err != nil {
			return UserInput{}, err
		}
		line = strings.TrimRight(line, " \t\r\n")
		if line == multiLineEnd {
			break
		}
		lines = append(lines, line)
	}
	return UserInput{Text: strings.Join(lines, "\n"), Lines: len(lines) + 2}, nil
}

// Confirm asks a yes/no question until it gets y, yes, n or no.
func (in *Input) Confirm(question string) (bool, error) {
	for {
		answer, err := in.reader.Prompt(question + " (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		in.console.Warn("Please answer 'y' or 'n'")
	}
}

// IsExitCommand reports whether text ends the session.
func IsExitCommand(text string) bool {
	switch strings.ToLower(text) {
	case "exit", "quit":
		return true
	}
	return false
}

// IsClosed reports whether err means the input can no longer be read.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted)
}

// ParseCopyCommand recognizes "copy <n>". ok is false when text is not a
// copy command at all; err is set when it is one with a bad index.
func ParseCopyCommand(text string) (index int, ok bool, err error) {
	if !strings.HasPrefix(strings.ToLower(text), "copy ") {
		return 0, false, nil
	}
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, true, fmt.Errorf("invalid copy command, use 'copy <number>'")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, true, fmt.Errorf("invalid message number %q", fields[1])
	}
	return n, true, nil
}

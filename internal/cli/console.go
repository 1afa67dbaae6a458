// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/util"
)

// =============================================================================
// CONSOLE
// =============================================================================

// Console is the line editor: prompt, masked password input, tab completion
// and persistent history. It satisfies commands.Prompter.
type Console struct {
	line        *liner.State
	historyFile string
	logger      *zap.Logger
	stdinTTY    func() bool
}

// NewConsole takes over the terminal. complete may be nil.
func NewConsole(historyFile string, complete func(string) []string, logger *zap.Logger) *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if complete != nil {
		line.SetCompleter(complete)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{
		line:        line,
		historyFile: historyFile,
		logger:      logger,
		stdinTTY:    func() bool { return isTerminal(os.Stdin) },
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *Console) LoadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := c.line.ReadHistory(f); err != nil {
		c.logger.Warn("history not loaded", zap.String("path", c.historyFile), zap.Error(err))
	}
}

// ReadLine reads one command line. Non-empty lines enter the history, except
// logins that carry a password.
func (c *Console) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" && !carriesSecret(input) {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Prompt reads an answer to an interactive question. Answers stay out of
// the history.
func (c *Console) Prompt(label string) (string, error) {
	return c.line.Prompt(label)
}

// PasswordPrompt reads a line without echo. It refuses to run when stdin is
// not a terminal, where the password would be read in the clear.
func (c *Console) PasswordPrompt(label string) (string, error) {
	if err := requireTerminal(label, c.stdinTTY()); err != nil {
		return "", err
	}
	return c.line.PasswordPrompt(label)
}

// SaveHistory persists command history to file with secure permissions.
func (c *Console) SaveHistory() {
	var buf strings.Builder
	if _, err := c.line.WriteHistory(&buf); err != nil {
		c.logger.Warn("history not written", zap.Error(err))
		return
	}
	if err := util.AtomicWriteFile(c.historyFile, []byte(buf.String()), 0600); err != nil {
		c.logger.Warn("history not saved", zap.String("path", c.historyFile), zap.Error(err))
	}
}

// Close saves history and gives the terminal back.
func (c *Console) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// carriesSecret reports whether line is a login with the password inline.
func carriesSecret(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 2 && fields[0] == "/login"
}

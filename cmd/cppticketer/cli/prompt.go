// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before an answer.
var ErrNoInput = errors.New("cli: no input")

// Prompter asks questions on a terminal. Secrets are read without
// echo when In is a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewPrompter prompts on stdin and stderr.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr}
}

// Interactive reports whether both ends are terminals.
func (p *Prompter) Interactive() bool {
	return IsTerminal(p.In) && IsTerminal(p.Out)
}

func (p *Prompter) line() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	text, err := p.reader.ReadString('\n')
	if err != nil && (text == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// Line asks for a line of text. An empty answer takes fallback.
func (p *Prompter) Line(label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(p.Out, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(p.Out, "%s: ", label)
	}
	answer, err := p.line()
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

// Secret asks for a value without echoing it.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)
	if file, ok := p.In.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		data, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return p.line()
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(label string, fallback bool) (bool, error) {
	hint := "y/N"
	if fallback {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.Out, "%s (%s): ", label, hint)
		answer, err := p.line()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return fallback, nil
		case "y", "yes", "是":
			return true, nil
		case "n", "no", "否":
			return false, nil
		}
		fmt.Fprintln(p.Out, "请输入 y 或 n")
	}
}

// Int asks for an integer, re-asking until check (if set) accepts it.
func (p *Prompter) Int(label string, fallback int, check func(int) error) (int, error) {
	for {
		answer, err := p.Line(label, strconv.Itoa(fallback))
		if err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintf(p.Out, "%q 不是整数\n", answer)
			continue
		}
		if check != nil {
			if err := check(value); err != nil {
				fmt.Fprintln(p.Out, err)
				continue
			}
		}
		return value, nil
	}
}

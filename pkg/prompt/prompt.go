// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt asks the user questions on the console.
package prompt

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💬 Prompter asks questions
type Prompter interface {
	// Confirm asks a yes/no question. A blank answer selects def.
	Confirm(ctx context.Context, question string, def bool) (bool, error)
	// Input asks for free text. A blank answer selects def.
	Input(ctx context.Context, question string, def string) (string, error)
}

// 🖥️ Console reads answers line by line from in and prints questions to out
type Console struct {
	in      *bufio.Reader
	printer *pterm.PrefixPrinter
}

var _ Prompter = (*Console)(nil)

// 🏭 NewConsole creates a console prompter
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:      bufio.NewReader(in),
		printer: pterm.Info.WithPrefix(pterm.Prefix{Text: "?", Style: pterm.NewStyle(pterm.FgBlack, pterm.BgCyan)}).WithWriter(out),
	}
}

// readLine returns the trimmed answer. io.EOF is returned only when no
// answer was typed at all.
func (c *Console) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm implements Prompter. Answers starting with "y" are a yes. A closed
// input declines.
func (c *Console) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "(y/N)"
	if def {
		hint = "(Y/n)"
	}
	c.printer.Print(question + " " + hint + ": ")

	answer, err := c.readLine(ctx)
	if errors.Is(err, io.EOF) {
		zerolog.Ctx(ctx).Debug().Str("question", question).Msg("input closed, declining")
		return false, nil
	}
	if err != nil {
		return false, errors.Errorf("reading answer: %w", err)
	}

	if answer == "" {
		return def, nil
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

// Input implements Prompter
func (c *Console) Input(ctx context.Context, question string, def string) (string, error) {
	if def != "" {
		c.printer.Print(question + " (" + def + "): ")
	} else {
		c.printer.Print(question + ": ")
	}

	answer, err := c.readLine(ctx)
	if errors.Is(err, io.EOF) {
		return def, nil
	}
	if err != nil {
		return "", errors.Errorf("reading answer: %w", err)
	}

	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// ✅ Auto answers yes to every confirmation and takes every default
type Auto struct{}

var _ Prompter = Auto{}

// Confirm implements Prompter
func (Auto) Confirm(ctx context.Context, question string, _ bool) (bool, error) {
	zerolog.Ctx(ctx).Debug().Str("question", question).Msg("auto confirming")
	return true, nil
}

// Input implements Prompter
func (Auto) Input(_ context.Context, _ string, def string) (string, error) {
	return def, nil
}

// 🏭 New returns Auto when yes is set, a Console otherwise
func New(yes bool, in io.Reader, out io.Writer) Prompter {
	if yes {
		return Auto{}
	}
	return NewConsole(in, out)
}

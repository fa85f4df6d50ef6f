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

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/walteh/packmmip/cmd/packmmip/opts"
	"github.com/walteh/packmmip/pkg/fault"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	o := &opts.RootOpts{Stdin: os.Stdin, Stdout: os.Stdout}
	err := NewRootCmd(o).ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(err)
	}
	os.Exit(fault.ExitCode(err))
}

// reportError prints err, and its hint when there is one, to stderr
func reportError(err error) {
	printer := pterm.Error.WithWriter(os.Stderr)
	if fault.Is(err, fault.KindDeclined) {
		printer = pterm.Warning.WithWriter(os.Stderr)
	}
	printer.Println(err.Error())

	if hint := fault.HintOf(err); hint != "" {
		pterm.Info.WithPrefix(pterm.Prefix{Text: "HINT", Style: pterm.NewStyle(pterm.FgBlack, pterm.BgYellow)}).
			WithWriter(os.Stderr).Println(hint)
	}
}

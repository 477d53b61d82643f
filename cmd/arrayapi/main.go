// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// arrayapi reports the array libraries known to arrayapi, their devices, and converts sample arrays
// between them.
//
// Usage:
//
//	arrayapi [-plain] libraries
//	arrayapi [-plain] devices [library...]
//	arrayapi [-plain] convert -from=host -to=gonum [-device=cpu]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/gomlx/arrayapi/backends/default"
	"github.com/muesli/termenv"
	"k8s.io/klog/v2"
)

var flagPlain = flag.Bool("plain", false, "Disable colors and text styles in the output.")

type command struct {
	name, usage string
	run         func(args []string) error
}

var commands = []command{
	{"libraries", "Lists the registered array libraries and their aliases.", runLibraries},
	{"devices", "Lists the devices of the given libraries, or of all available libraries.", runDevices},
	{"convert", "Converts the sample array of one library to another library and device.", runConvert},
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "Usage: %s [flags] <command> [command flags]\n\nCommands:\n", os.Args[0])
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(out, "  %-10s %s\n", cmd.name, cmd.usage)
	}
	_, _ = fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	output := termenv.NewOutput(os.Stdout)
	if *flagPlain {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(output.ColorProfile())
	}

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing command. See '%s -help'.", os.Args[0])
		os.Exit(1)
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		if err := cmd.run(args[1:]); err != nil {
			klog.Errorf("%s failed: %+v", cmd.name, err)
			os.Exit(1)
		}
		return
	}
	klog.Errorf("Unknown command %q. See '%s -help'.", args[0], os.Args[0])
	os.Exit(1)
}

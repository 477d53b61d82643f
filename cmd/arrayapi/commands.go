// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/convert"
	"github.com/pkg/errors"
)

func runLibraries(args []string) error {
	if len(args) > 0 {
		return errors.Errorf("libraries takes no arguments, got %q", args)
	}
	aliasesOf := make(map[string][]string)
	for alias, name := range backends.Aliases() {
		aliasesOf[name] = append(aliasesOf[name], alias)
	}

	fmt.Println(titleStyle.Render("Array Libraries"))
	table := newTable([]string{"Name", "Aliases", "Module", "DTypes", "Status"},
		lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Left)
	for _, name := range backends.Names() {
		aliases := aliasesOf[name]
		slices.Sort(aliases)
		backend, err := backends.Get(name)
		if err != nil {
			table.Row(true, name, strings.Join(aliases, ", "), "-", "-", firstLine(err))
			continue
		}
		status := "available"
		if name == backends.Accelerator() {
			status += " (accelerator)"
		}
		table.Row(false, name, strings.Join(aliases, ", "), backend.ModulePath(),
			humanize.Comma(int64(len(backend.DTypes()))), status)
	}
	fmt.Println(table.Table.Render())
	return nil
}

func runDevices(args []string) error {
	names := args
	if len(names) == 0 {
		names = backends.Names()
	}
	fmt.Println(titleStyle.Render("Devices"))
	table := newTable([]string{"Library", "Device", "Description"})
	for _, name := range names {
		backend, err := backends.Get(name)
		if err != nil {
			if len(args) > 0 {
				return err
			}
			table.Row(true, name, "-", firstLine(err))
			continue
		}
		devices := backend.Devices()
		if len(devices) == 0 {
			table.Row(true, backend.Name(), "-", "no devices available")
			continue
		}
		for _, device := range devices {
			table.Row(false, backend.Name(), device.String(), firstLine(backend.Description()))
		}
	}
	fmt.Println(table.Table.Render())
	return nil
}

func runConvert(args []string) error {
	flags := flag.NewFlagSet("convert", flag.ContinueOnError)
	from := flags.String("from", backends.HostName, "Library of the sample array to convert.")
	to := flags.String("to", "", "Target library. If empty, it is selected from -device.")
	device := flags.String("device", "", "Target device, e.g. \"cpu\", \"cuda:0\" or \"gpu\".")
	if err := flags.Parse(args); err != nil {
		return err
	}
	source, err := backends.Get(*from)
	if err != nil {
		return err
	}
	x, err := source.Sample()
	if err != nil {
		return errors.WithMessagef(err, "creating sample array of %s", source.Name())
	}
	var target any
	if *to != "" {
		target = *to
	}
	converted, err := convert.Convert(x, target, *device)
	if err != nil {
		return err
	}
	result, err := backends.FromArray(converted, true)
	if err != nil {
		return err
	}
	shape, err := result.Shape(converted)
	if err != nil {
		return err
	}
	resultDevice, err := result.Device(converted)
	if err != nil {
		return err
	}
	values, err := convert.ToHost(converted)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s ➞ %s", source.Name(), result.Name())))
	table := newTable([]string{"Property", "Value"})
	table.Row(false, "Go type", fmt.Sprintf("%T", converted))
	table.Row(false, "Shape", shape.String())
	table.Row(false, "Device", resultDevice.String())
	table.Row(false, "Memory", humanize.Bytes(uint64(shape.Memory())))
	table.Row(false, "Values", values.String())
	fmt.Println(table.Table.Render())
	return nil
}

// firstLine of a message, to keep table rows short.
func firstLine(message any) string {
	s := fmt.Sprint(message)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command nettracedump prints the trace-info header and normalized
// events of a .nettrace file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aclements/go-nettrace/coreclr"
	"github.com/aclements/go-nettrace/etw"
	"github.com/aclements/go-nettrace/nettrace"
)

var (
	flagEvents int
	flagQuiet  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "nettracedump FILE",
		Short:         "Dump a .nettrace (EventPipe) trace file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          dump,
	}
	rootCmd.Flags().IntVar(&flagEvents, "events", -1, "print at most `n` events (-1 for all)")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress the trace-info header")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()
	coreclr.SetLogger(logger)
	etw.SetLogger(logger)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := nettrace.Open(f)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}

	if !flagQuiet {
		info, err := p.TraceInfo()
		if err != nil {
			return fmt.Errorf("reading trace info: %w", err)
		}
		fmt.Printf("trace info: %+v\n", info)
	}

	n := 0
	for p.Next() {
		if flagEvents >= 0 && n >= flagEvents {
			break
		}
		meta, event := p.Metadata(), p.Event()
		fmt.Printf("%+v %T %+v\n", meta, event, event)
		n++
	}
	if err := p.Err(); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	return nil
}

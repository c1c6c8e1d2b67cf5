// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command pgzip is a parallel gzip-format compressor: the command-line
// driver around the github.com/cosnicolaou/pgzip package's core pipeline.
package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/cosnicolaou/pgzip"
	"golang.org/x/crypto/ssh/terminal"
)

const version = "1.0.0"

const licenseText = `Copyright 2020 Cosmos Nicolaou. All rights reserved.
This is free software.  You may redistribute copies of it under the terms
of the Apache License, Version 2.0.
There is NO WARRANTY, to the extent permitted by law.`

// CommonFlags are shared by both the compress and decompress commands.
type CommonFlags struct {
	Workers int  `subcmd:"workers,,'number of parallel compression workers, defaults to GOMAXPROCS'"`
	Verbose bool `subcmd:"verbose,false,verbose trace information"`
	Quiet   bool `subcmd:"quiet,false,suppress all warnings"`
}

type compressFlags struct {
	CommonFlags
	Stdout    bool   `subcmd:"stdout,false,write on standard output, keep original files unchanged"`
	Keep      bool   `subcmd:"keep,false,keep (do not delete) input files"`
	Force     bool   `subcmd:"force,false,force overwrite of output file"`
	BlockSize int    `subcmd:"block-size,131072,block size in bytes handed to each worker"`
	Suffix    string `subcmd:"suffix,.gz,suffix to use on compressed files"`
	Level     int    `subcmd:"level,6,compression level, 1 (fastest) to 9 (best)"`
	Progress  bool   `subcmd:"progress,true,display a progress bar"`
}

type decompressFlags struct {
	CommonFlags
	OutputFile string `subcmd:"output,,'output file, omit for stdout'"`
}

type noFlags struct{}

var cmdSet *subcmd.CommandSet

func init() {
	defaults := map[string]interface{}{
		"workers": runtime.GOMAXPROCS(-1),
	}

	compressCmd := subcmd.NewCommand("compress",
		subcmd.MustRegisterFlagStruct(&compressFlags{}, defaults, nil),
		compress, subcmd.AtLeastNArguments(0))
	compressCmd.Document(`compress files or stdin using a parallel DEFLATE pipeline, emitting a single gzip member per input.`)

	decompressCmd := subcmd.NewCommand("decompress",
		subcmd.MustRegisterFlagStruct(&decompressFlags{}, defaults, nil),
		decompress, subcmd.ExactlyNumArguments(1))
	decompressCmd.Document(`decompress a single gzip file or stdin; delegates to the standard library, the inflate side being outside this package's scope.`)

	licenseCmd := subcmd.NewCommand("license",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		showLicense, subcmd.ExactlyNumArguments(0))
	licenseCmd.Document(`display the software license.`)

	versionCmd := subcmd.NewCommand("version",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		showVersion, subcmd.ExactlyNumArguments(0))
	versionCmd.Document(`display the version number.`)

	cmdSet = subcmd.NewCommandSet(compressCmd, decompressCmd, licenseCmd, versionCmd)
	cmdSet.Document(`compress and decompress files using a parallel gzip pipeline.`)
}

func showLicense(_ context.Context, _ interface{}, _ []string) error {
	fmt.Println(licenseText)
	return nil
}

func showVersion(_ context.Context, _ interface{}, _ []string) error {
	fmt.Printf("pgzip %s\n", version)
	return nil
}

func optsFromCommonFlags(cl *CommonFlags) []pgzip.Option {
	opts := []pgzip.Option{pgzip.WithVerbose(cl.Verbose)}
	if cl.Workers > 0 {
		opts = append(opts, pgzip.WithWorkers(cl.Workers))
	}
	return opts
}

func outputName(input, suffix string) string {
	return input + suffix
}

func compressOne(ctx context.Context, cl *compressFlags, input string) error {
	errs := &errors.M{}

	rd, readerCleanup, err := openInput(ctx, input)
	if err != nil {
		return err
	}
	defer func() { errs.Append(readerCleanup(ctx)) }()

	outName := ""
	if !cl.Stdout {
		outName = outputName(input, cl.Suffix)
		if !cl.Force {
			if _, err := os.Stat(outName); err == nil {
				return fmt.Errorf("%v already exists, use --force to overwrite", outName)
			}
		}
	}
	wr, writerCleanup, err := createOutput(ctx, outName)
	if err != nil {
		return err
	}

	opts := optsFromCommonFlags(&cl.CommonFlags)
	opts = append(opts,
		pgzip.WithBlockSize(cl.BlockSize),
		pgzip.WithLevel(cl.Level),
		pgzip.WithModTime(time.Now()))
	if input != "" && input != "-" {
		opts = append(opts, pgzip.WithName(input))
	}

	var progressCh chan pgzip.Progress
	isTTY := terminal.IsTerminal(int(os.Stdout.Fd()))
	progressWr := os.Stderr
	if cl.Progress && !cl.Quiet && (outName != "" || !isTTY) {
		progressCh = make(chan pgzip.Progress, cl.Workers+1)
		opts = append(opts, pgzip.WithProgress(progressCh))
		size := int64(-1)
		if fi, err := os.Stat(input); err == nil {
			size = fi.Size()
		}
		go drainProgress(ctx, progressWr, progressCh, size)
	}

	err = pgzip.Compress(ctx, rd, wr, opts...)
	errs.Append(err)
	if progressCh != nil {
		close(progressCh)
	}
	errs.Append(writerCleanup(ctx))

	if errs.Err() == nil && outName != "" && !cl.Keep && input != "" && input != "-" {
		errs.Append(os.Remove(input))
	}
	return errs.Err()
}

func compress(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)
	cl := values.(*compressFlags)

	if len(args) == 0 {
		args = []string{"-"}
	}
	errs := &errors.M{}
	for _, input := range args {
		errs.Append(compressOne(ctx, cl, input))
	}
	return errs.Err()
}

func decompress(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)
	cl := values.(*decompressFlags)

	rd, readerCleanup, err := openInput(ctx, args[0])
	if err != nil {
		return err
	}
	defer readerCleanup(ctx)

	wr, writerCleanup, err := createOutput(ctx, cl.OutputFile)
	if err != nil {
		return err
	}

	errs := &errors.M{}
	gr, err := gzip.NewReader(rd)
	if err != nil {
		return fmt.Errorf("failed to read stream header: %v", err)
	}
	_, err = io.Copy(wr, gr)
	errs.Append(err)
	errs.Append(gr.Close())
	errs.Append(writerCleanup(ctx))
	return errs.Err()
}

func main() {
	if len(os.Args) == 1 {
		// No subcommand: behave like a classic gzip invocation reading
		// stdin and writing stdout at the default level.
		if err := pgzip.Compress(context.Background(), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "pgzip: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if isLevelFlag(os.Args[1]) {
		runLevelShortcut(os.Args[1:])
		return
	}
	cmdSet.MustDispatch(context.Background())
}

// isLevelFlag reports whether arg is one of the classic gzip -1..-9
// shortcuts, which this CLI accepts ahead of subcommand dispatch.
func isLevelFlag(arg string) bool {
	if len(arg) != 2 || arg[0] != '-' {
		return false
	}
	return arg[1] >= '1' && arg[1] <= '9'
}

func runLevelShortcut(args []string) {
	level := int(args[0][1] - '0')
	var files []string
	for _, a := range args[1:] {
		if !strings.HasPrefix(a, "-") {
			files = append(files, a)
		}
	}
	ctx := context.Background()
	if len(files) == 0 {
		if err := pgzip.Compress(ctx, os.Stdin, os.Stdout, pgzip.WithLevel(level)); err != nil {
			fmt.Fprintf(os.Stderr, "pgzip: %v\n", err)
			os.Exit(1)
		}
		return
	}
	errs := &errors.M{}
	for _, f := range files {
		errs.Append(compressOne(ctx, &compressFlags{
			CommonFlags: CommonFlags{Workers: runtime.GOMAXPROCS(-1)},
			Suffix:      ".gz",
			Level:       level,
			Progress:    false,
		}, f))
	}
	if err := errs.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "pgzip: %v\n", err)
		os.Exit(1)
	}
}

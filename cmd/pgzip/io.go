// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
)

func init() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

// openInput opens name for reading, where name may be a local path or an
// s3:// URI; "-" means standard input.
func openInput(ctx context.Context, name string) (io.Reader, func(context.Context) error, error) {
	if name == "-" || name == "" {
		return os.Stdin, func(context.Context) error { return nil }, nil
	}
	f, err := file.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return f.Reader(ctx), f.Close, nil
}

// createOutput creates name for writing, where name may be a local path
// or an s3:// URI; an empty name means standard output.
func createOutput(ctx context.Context, name string) (io.Writer, func(context.Context) error, error) {
	if name == "" {
		return os.Stdout, func(context.Context) error { return nil }, nil
	}
	f, err := file.Create(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return f.Writer(ctx), f.Close, nil
}

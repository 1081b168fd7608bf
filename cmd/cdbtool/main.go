// Command cdbtool builds and queries constant databases from the
// command line: a thin, synchronous exerciser over package cdb,
// following the build-then-verify style of the teacher's
// cmd-x-index.go family.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rpcpool/gocdb/cdb"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("cdbtool failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cdbtool <build|get|dump> [flags]")
}

// runBuild reads CSV records of (key, value) from -in (default stdin)
// and writes a finalised CDB file to -out.
func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "CSV file of key,value rows (default: stdin)")
	out := fs.String("out", "", "path to the .cdb file to create")
	preallocate := fs.Bool("preallocate", true, "fallocate secondary tables before writing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("cdbtool build: -out is required")
	}

	src, err := openInput(*in)
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()

	w, err := cdb.NewWriter(f, cdb.WithPreallocation(*preallocate))
	if err != nil {
		return err
	}
	defer func() {
		if ferr := w.Finalize(); ferr != nil {
			slog.Warn("cdbtool: deferred Finalize also failed", "error", ferr)
		}
	}()

	start := time.Now()
	count := 0
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = 2
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading row %d: %w", count, err)
		}
		if err := w.Put([]byte(record[0]), []byte(record[1])); err != nil {
			return fmt.Errorf("row %d: %w", count, err)
		}
		count++
	}

	if err := w.Finalize(); err != nil {
		return fmt.Errorf("finalizing %s: %w", *out, err)
	}
	slog.Info("cdbtool: build finished", "out", *out, "records", count, "elapsed", time.Since(start))
	return nil
}

// runGet looks up a single key in -db and writes the value to stdout.
func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	path := fs.String("db", "", "path to the .cdb file to query")
	key := fs.String("key", "", "key to look up")
	useMmap := fs.Bool("mmap", false, "memory-map the file instead of loading it onto the heap")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *key == "" {
		return fmt.Errorf("cdbtool get: -db and -key are required")
	}

	strategy := cdb.Heap
	if *useMmap {
		strategy = cdb.Mmap
	}
	view, err := cdb.Open(*path, strategy)
	if err != nil {
		return err
	}
	defer view.Close()

	r := cdb.NewReader(view)
	dest := make([]byte, 64*1024)
	n, err := r.Get([]byte(*key), dest)
	if cdb.IsNotFound(err) {
		return fmt.Errorf("key %q not found in %s", *key, *path)
	}
	if err != nil {
		return err
	}
	_, werr := os.Stdout.Write(dest[:n])
	return werr
}

// runDump walks every bucket in -db and prints the (pointer, count)
// pairs for non-empty ones, for debugging the index layout.
func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	path := fs.String("db", "", "path to the .cdb file to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("cdbtool dump: -db is required")
	}

	view, err := cdb.OpenHeap(*path)
	if err != nil {
		return err
	}
	defer view.Close()

	return cdb.WalkBuckets(view, func(index int, ptr, numEnts uint32) {
		if numEnts == 0 {
			return
		}
		fmt.Printf("bucket %3d: ptr=%d num_ents=%d\n", index, ptr, numEnts)
	})
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(bufio.NewReader(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

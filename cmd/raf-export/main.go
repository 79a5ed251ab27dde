package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"raf-importer/internal/export"
	"raf-importer/internal/library"
	"raf-importer/internal/raf"
)

var (
	dir     = flag.String("dir", ".", "`directory` of raw files to develop")
	out     = flag.String("out", "", "output `directory` (default <dir>/export)")
	workers = flag.Int("workers", 1, "parallel develop `count`")
	quality = flag.Int("quality", export.DefaultQuality, "JPEG `quality` (1-100)")
	decoder = flag.String("decoder", "dcraw", "raw decoder `command`")
	verbose = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	// The pipeline logs through the shared logger; without -v only
	// errors get through, so progress stays readable.
	if *verbose {
		os.Setenv("DEBUG", "1")
	} else if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "error")
	}

	if *workers < 1 {
		fmt.Fprintln(os.Stderr, "error: -workers must be at least 1")
		flag.Usage()
		os.Exit(2)
	}
	if *quality < 1 || *quality > 100 {
		fmt.Fprintln(os.Stderr, "error: -quality must be between 1 and 100")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "raf-export develops every Fujifilm RAF file in a directory to JPEG.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage: raf-export [flags]")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
}

func run(ctx context.Context) error {
	srcDir, err := filepath.Abs(*dir)
	if err != nil {
		return fmt.Errorf("cannot resolve directory %q: %w", *dir, err)
	}
	outDir := *out
	if outDir == "" {
		outDir = filepath.Join(srcDir, "export")
	}
	if outDir, err = filepath.Abs(outDir); err != nil {
		return fmt.Errorf("cannot resolve output directory %q: %w", *out, err)
	}

	if _, err := exec.LookPath(*decoder); err != nil {
		return fmt.Errorf("raw decoder %q not found in PATH", *decoder)
	}

	files, err := library.Scan(srcDir)
	if err != nil {
		return fmt.Errorf("cannot scan %s: %w", srcDir, err)
	}
	if len(files) == 0 {
		fmt.Printf("No raw files found in %s\n", srcDir)
		return nil
	}

	export.InitVips()
	defer export.ShutdownVips()
	var encoder export.Encoder = export.StdEncoder{}
	if export.IsVipsAvailable() {
		encoder = export.VipsEncoder{}
	}

	pipeline := export.NewPipeline(raf.NewDeveloper(*decoder), encoder, *workers, *quality)
	job, err := pipeline.Export(files, outDir, 0)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-job.Done():
			default:
				fmt.Fprintln(os.Stderr, "\nInterrupted, finishing in-flight files...")
				job.Cancel()
			}
		case <-job.Done():
		}
	}()

	fmt.Printf("Developing %d raw files from %s\n", len(files), srcDir)
	for p := range job.Progress() {
		fmt.Printf("[%d/%d] %s\n", p.Index, p.Total, filepath.Base(p.Path))
	}
	<-job.Done()

	report := job.Report()
	fmt.Printf("Developed %d of %d files to %s in %.1fs\n",
		report.Succeeded, report.Total, report.Destination, report.DurationSeconds)
	for _, r := range report.Results {
		if !r.Succeeded() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", filepath.Base(r.Path), r.Error)
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Total)
	}
	if report.Cancelled {
		return errors.New("export cancelled")
	}
	return nil
}

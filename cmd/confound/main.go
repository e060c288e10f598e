// Command confound runs confound correction over the scans listed in a
// manifest and prints per-scan diagnostics.
//
// Usage:
//
//	confound [flags] manifest.csv
//
// The manifest is a CSV table with a header row and the columns
//
//	id,bold,mask,confounds,wm_mask,csf_mask
//
// where bold is a 4-D NIfTI-1 image, mask the brain mask it is read
// through, confounds the preprocessing confound table, and the optional
// wm_mask and csf_mask the tissue masks aCompCor draws from.
//
// Examples:
//
//	confound -config clean.json scans.csv
//	confound -workers 4 -log-level debug scans.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/batch"
	"github.com/cwbudde/algo-confound/confound/config"
	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/inputs"
	"github.com/cwbudde/algo-confound/confound/pipeline"
	"github.com/cwbudde/algo-confound/internal/logging"
)

type manifestRow struct {
	ID        string `csv:"id"`
	Bold      string `csv:"bold"`
	Mask      string `csv:"mask"`
	Confounds string `csv:"confounds"`
	WMMask    string `csv:"wm_mask"`
	CSFMask   string `csv:"csf_mask"`
}

func main() {
	configPath := flag.String("config", "", "JSON configuration file (defaults when empty)")
	workers := flag.Int("workers", 0, "scans processed concurrently (0 = GOMAXPROCS)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: confound [flags] manifest.csv\n\n")
		fmt.Fprintf(os.Stderr, "Runs confound correction on every scan of the manifest.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := logging.New(*logLevel, *logFormat)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rows, err := readManifest(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var scans []pipeline.Scan
	var loadFailures []batch.Outcome
	for _, row := range rows {
		scan, err := loadScan(row)
		if err != nil {
			loadFailures = append(loadFailures, batch.Outcome{ScanID: row.ID, Err: err})
			continue
		}
		scans = append(scans, scan)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outs := append(batch.Run(ctx, p, scans, *workers), loadFailures...)
	printOutcomes(outs)

	sum := batch.Summarize(outs)
	logger.Info("batch finished", "summary", sum.String())
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

func readManifest(path string) ([]*manifestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open manifest")
	}
	defer f.Close()

	var rows []*manifestRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}
	for i, r := range rows {
		if r.ID == "" || r.Bold == "" || r.Mask == "" {
			return nil, errors.Errorf("manifest row %d: id, bold and mask are required", i+1)
		}
	}
	return rows, nil
}

func loadScan(row *manifestRow) (pipeline.Scan, error) {
	ts, err := inputs.LoadNifti(row.Bold, row.Mask)
	if err != nil {
		return pipeline.Scan{}, err
	}
	scan := pipeline.Scan{ID: row.ID, Signal: ts}

	if row.Confounds != "" {
		f, err := os.Open(row.Confounds)
		if err != nil {
			return pipeline.Scan{}, errors.Wrap(err, "open confounds")
		}
		defer f.Close()

		c, err := inputs.ReadConfounds(f)
		if err != nil {
			return pipeline.Scan{}, errors.Wrap(err, row.Confounds)
		}
		scan.Motion, scan.Regressors = c.Motion, c.Regressors
	}

	var tissueMasks []*inputs.Mask
	for _, path := range []string{row.WMMask, row.CSFMask} {
		if path == "" {
			continue
		}
		m, err := inputs.LoadMask(path)
		if err != nil {
			return pipeline.Scan{}, err
		}
		tissueMasks = append(tissueMasks, m)
	}
	if len(tissueMasks) > 0 {
		union, err := inputs.TissueUnion(tissueMasks...)
		if err != nil {
			return pipeline.Scan{}, err
		}
		if scan.Tissue, err = inputs.Tissue(ts, union); err != nil {
			return pipeline.Scan{}, err
		}
	}
	return scan, nil
}

func printOutcomes(outs []batch.Outcome) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Scan\tStatus\tFrames\tRetained\tFinal\tFD\tDVARS\tEdge\tRank\tNoise\tNote\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "----\t------\t------\t--------\t-----\t--\t-----\t----\t----\t-----\t----\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, o := range outs {
		if o.Failed() {
			if _, err := fmt.Fprintf(tw, "%s\tfailed\t\t\t\t\t\t\t\t\t%v\n", o.ScanID, o.Err); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
				return
			}
			continue
		}

		d := o.Result.Diagnostics
		note := strings.Join(d.Warnings, "; ")
		if o.Result.Excluded() {
			note = o.Result.Reason
			if o.Result.Err != nil {
				note += ": " + o.Result.Err.Error()
			}
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			o.ScanID,
			o.Result.Status,
			d.OriginalFrames,
			d.RetainedFrames,
			d.FinalFrames,
			d.Censored[core.RuleFD],
			d.Censored[core.RuleDVARS],
			d.Censored[core.RuleEdge],
			d.Rank,
			d.NoiseComponents,
			note,
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

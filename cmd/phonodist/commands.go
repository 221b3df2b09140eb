package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/hupe1980/phonodist"
	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/blobstore"
	"github.com/hupe1980/phonodist/matrixio"
	"github.com/hupe1980/phonodist/normalize"
)

var commands = map[string]command{
	"normalize": {summary: "print the canonical form of IPA strings", setup: normalizeCmd},
	"lookup":    {summary: "print feature rows of phonemes (all when none given)", setup: lookupCmd},
	"distance":  {summary: "distance between two phonemes", setup: distanceCmd},
	"matrix":    {summary: "distance matrix of phonemes (all when none given)", setup: matrixCmd},
	"align":     {summary: "align two space-separated segment sequences", setup: alignCmd},
	"cognates":  {summary: "cognate threshold statistics of a cognate table blob", setup: cognatesCmd},
	"methods":   {summary: "list distance methods", setup: methodsCmd},
}

var errArgs = errors.New("wrong number of arguments")

func normalizeCmd(fs *flag.FlagSet) runner {
	nfc := fs.Bool("nfc", false, "print the NFC display form instead of the decomposed key")
	check := fs.Bool("check", false, "append whether the input is valid IPA")
	return func(_ context.Context, a *app, args []string) error {
		for _, text := range args {
			out := a.engine.Normalize(text)
			if *nfc {
				out = normalize.NFC(out)
			}
			if *check {
				out += "\t" + fmt.Sprint(normalize.IsValidIPA(text))
			}
			fmt.Fprintln(a.stdout, out)
		}
		return nil
	}
}

func lookupCmd(fs *flag.FlagSet) runner {
	csv := fs.Bool("csv", false, "comma separated output")
	return func(ctx context.Context, a *app, args []string) error {
		f := matrixio.TSV
		if *csv {
			f = matrixio.CSV
		}
		var phonemes []string
		if len(args) > 0 {
			phonemes = args
		}
		return a.engine.ExportFeatures(ctx, a.stdout, phonemes, f)
	}
}

func distanceCmd(fs *flag.FlagSet) runner {
	clusters := fs.Int("clusters", 0, "cluster count of the kmeans method (default from config)")
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: distance <a> <b>", errArgs)
		}
		d, ok, err := a.engine.Distance(ctx, args[0], args[1], func(o *phonodist.DistanceOptions) {
			if *clusters > 0 {
				o.Clusters = *clusters
			}
		})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.stdout, "missing")
			return nil
		}
		fmt.Fprintln(a.stdout, a.format(d))
		return nil
	}
}

func matrixCmd(fs *flag.FlagSet) runner {
	out := fs.String("o", "", "save to this blob of the configured storage instead of printing")
	format := fs.String("format", "", "tsv, csv, json or bin (default from -o extension, else tsv)")
	compression := fs.String("compression", "zstd", "binary codec: none, lz4 or zstd")
	return func(ctx context.Context, a *app, args []string) error {
		var phonemes []string
		if len(args) > 0 {
			phonemes = args
		}
		m, err := a.engine.BuildDistanceMatrix(ctx, phonemes)
		if err != nil {
			return err
		}

		f := matrixio.TSV
		switch {
		case *format != "":
			if f, err = matrixio.ParseFormat(*format); err != nil {
				return err
			}
		case *out != "":
			if f, err = matrixio.Detect(*out, nil); err != nil {
				return err
			}
		}
		c, err := matrixio.ParseCompression(*compression)
		if err != nil {
			return err
		}
		opts := func(o *matrixio.Options) {
			o.Precision = a.cfg.Precision
			o.Compression = c
		}

		if *out == "" {
			return matrixio.Encode(a.stdout, m, f, opts)
		}
		store, err := a.blobStore(ctx)
		if err != nil {
			return err
		}
		return a.engine.SaveMatrix(ctx, store, *out, m, f, opts)
	}
}

func alignCmd(fs *flag.FlagSet) runner {
	gap := fs.Float64("gap", -1, "gap penalty (default from config)")
	out := fs.String("o", "", "append the result to this JSON blob of the configured storage")
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: align <segments> <segments>", errArgs)
		}
		r, err := a.engine.Align(ctx, segments(args[0]), segments(args[1]), func(o *phonodist.AlignOptions) {
			if *gap >= 0 {
				o.GapPenalty = *gap
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, r)

		if *out == "" {
			return nil
		}
		store, err := a.blobStore(ctx)
		if err != nil {
			return err
		}
		results, err := a.engine.LoadAlignments(ctx, store, *out)
		if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return err
		}
		return a.engine.SaveAlignments(ctx, store, *out, append(results, r))
	}
}

func cognatesCmd(fs *flag.FlagSet) runner {
	delim := fs.String("delimiter", ",", "cell delimiter of the cognate table")
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: cognates <blob>", errArgs)
		}
		if len([]rune(*delim)) != 1 {
			return fmt.Errorf("delimiter must be one character, got %q", *delim)
		}
		store, err := a.blobStore(ctx)
		if err != nil {
			return err
		}
		data, err := blobstore.ReadAll(ctx, store, args[0])
		if err != nil {
			return err
		}
		corpus, err := phonodist.LoadCognates(bytes.NewReader(data), align.LoadOptions{Delimiter: []rune(*delim)[0]})
		if err != nil {
			return err
		}
		stats, err := a.engine.OptimizeFromCognates(ctx, corpus.Sequences())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
}

func methodsCmd(*flag.FlagSet) runner {
	return func(_ context.Context, a *app, _ []string) error {
		for _, name := range a.engine.AvailableMethods() {
			kind := "custom"
			if a.engine.IsBuiltinMethod(name) {
				kind = "builtin"
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", name, kind)
		}
		return nil
	}
}

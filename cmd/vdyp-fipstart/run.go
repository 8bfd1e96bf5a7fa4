package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vdyp/internal/adapters/ingest/fipfile"
	"vdyp/internal/adapters/ingest/jsonlines"
	"vdyp/internal/modkit"
	"vdyp/internal/modkit/module"
	"vdyp/internal/platform/config"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	"vdyp/internal/platform/store"
	dom "vdyp/internal/services/fip/domain"
	fipmod "vdyp/internal/services/fip/module"
	"vdyp/internal/services/fip/repo"
	"vdyp/internal/services/fip/service"
)

const appName = "vdyp-fipstart"

type flags struct {
	polygons, layers, species string
	input                     string
	out                       string
	runID                     string
	coefficients              string
	workers                   int
	dryRun                    bool
	persist                   bool
	migrate                   bool
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.polygons, "polygons", "", "fixed-width polygon file")
	fs.StringVar(&f.layers, "layers", "", "fixed-width layer file")
	fs.StringVar(&f.species, "species", "", "fixed-width species file")
	fs.StringVar(&f.input, "input", "", "JSON lines polygon file instead of the fixed-width files; - is stdin")
	fs.StringVar(&f.out, "out", "-", "JSON lines result file; - is stdout, empty disables")
	fs.StringVar(&f.runID, "run-id", "", "run id (uuid); generated when empty")
	fs.StringVar(&f.coefficients, "coefficients", "", "coefficient tables file (overrides FIP_COEFFICIENTS)")
	fs.IntVar(&f.workers, "workers", 0, "polygons processed at once (overrides FIP_WORKERS)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "process but write no results")
	fs.BoolVar(&f.persist, "store", false, "write results to the configured postgres and clickhouse")
	fs.BoolVar(&f.migrate, "migrate", false, "create the result tables before the run")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	fixed := f.polygons != "" || f.layers != "" || f.species != ""
	switch {
	case f.input != "" && fixed:
		return f, perr.InvalidArgf("use either -input or -polygons/-layers/-species")
	case f.input == "" && (f.polygons == "" || f.layers == "" || f.species == ""):
		return f, perr.InvalidArgf("-polygons, -layers and -species are all required without -input")
	}
	if f.runID != "" {
		if _, err := uuid.Parse(f.runID); err != nil {
			return f, perr.WithField(perr.InvalidArgf("run id %q is not a uuid", f.runID), "run-id")
		}
	}
	return f, nil
}

type source interface {
	dom.Source
	Close() error
}

func openSource(f flags) (source, error) {
	if f.input != "" {
		return jsonlines.Open(f.input)
	}
	return fipfile.Open(f.polygons, f.layers, f.species)
}

// run processes one input set and prints a summary line to stderr
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	root := config.New()
	opts := fipmod.FromConfig(root)
	if f.coefficients != "" {
		opts.Coefficients = f.coefficients
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	opts.DryRun = opts.DryRun || f.dryRun

	tables, err := opts.LoadTables()
	if err != nil {
		return err
	}
	deps := modkit.Deps{Cfg: root, Tables: tables}

	if f.persist || f.migrate {
		st, oerr := store.Open(ctx, store.FromConfig(root, appName), store.WithLogger(*logger.Get()))
		if oerr != nil {
			return oerr
		}
		defer func() {
			if cerr := st.Close(context.Background()); cerr != nil && err == nil {
				err = cerr
			}
		}()
		if !st.Enabled() {
			return perr.Configf("-store and -migrate need SERVICE_PGSQL_DBURL or SERVICE_CLICKHOUSE_DBURL")
		}
		deps.PG, deps.CH = st.PG, st.CH
	}

	fip := fipmod.New(deps, opts)
	module.Register(fip.Name(), fip.Ports())
	runner := module.MustPortsOf[dom.RunnerPort](fip)

	runID := f.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logger.WithRun(ctx, runID)

	if f.migrate {
		if err := fip.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	src, err := openSource(f)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	var sinks service.Tee
	if f.out != "" {
		var out *repo.JSONL
		if f.out == "-" {
			out = repo.NewJSONL(stdout, runID)
		} else if out, err = repo.CreateJSONL(f.out, runID); err != nil {
			return err
		}
		defer func() {
			if cerr := out.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		sinks = append(sinks, out)
	}
	var batch *service.BatchSink
	if f.persist {
		batch = fip.BatchSink()
		sinks = append(sinks, batch)
	}

	sum, err := runner.Run(ctx, src, sinks)
	if batch != nil && err == nil {
		err = batch.Flush(ctx)
	}
	printSummary(stderr, sum)
	return err
}

func printSummary(w io.Writer, sum dom.Summary) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "run %s: %d polygons read, %d processed, %d skipped, %d rejected\n",
		sum.RunID, sum.Read, sum.OK, sum.Skipped, sum.Rejected)
}

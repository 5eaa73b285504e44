package graph

import (
	"context"
	"fmt"
	"runtime"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/diag"
	"github.com/specialistvlad/fgdeps/internal/inmemorystore"
	"github.com/specialistvlad/fgdeps/internal/inmemorytopology"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"golang.org/x/sync/errgroup"
)

// Malformed is an input whose prior summary could not be read. The driver
// treats it as dirty.
type Malformed struct {
	Input   unit.Input
	Summary string
	Err     error
}

// InitialBuild describes where BuildInitialGraph finds its inputs.
type InitialBuild struct {
	// Inputs are the source inputs of this build.
	Inputs []unit.Input
	// Previous holds the inputs of the previous build. Only their summaries
	// are read; a new input has none yet.
	Previous map[unit.Input]bool
	// Outputs maps every input to its summary path.
	Outputs unit.OutputFileMap
	// Reader loads a summary.
	Reader summary.Reader
	// Diagnostics receives the missing-location remark and malformed
	// summary warnings. Defaults to discarding.
	Diagnostics diag.Sink
}

// BuildInitialGraph builds a graph from the on-disk summaries of the
// previous build.
//
// Every input must have a summary location; otherwise a remark is emitted
// and ErrNoSummaryLocation returned, with no graph. A summary that fails to
// read does not fail the build: its input is returned as Malformed.
//
// Summaries are read concurrently and integrated sequentially in input order.
func BuildInitialGraph(ctx context.Context, b InitialBuild, opts ...Option) (Graph, []Malformed, error) {
	logger := ctxlog.FromContext(ctx)
	sink := b.Diagnostics
	if sink == nil {
		sink = diag.Discard
	}
	opts = append([]Option{WithDiagnostics(sink)}, opts...)
	g := New(inmemorytopology.New(), inmemorystore.New(), opts...)

	handles := make([]unit.Handle, len(b.Inputs))
	for i, in := range b.Inputs {
		path, ok := b.Outputs.SummaryPath(in)
		if !ok {
			sink.Emit(diag.Remarkf(in.File, "%s has no dependency summary file", in.Basename()))
			return nil, nil, fmt.Errorf("%s: %w", in, ErrNoSummaryLocation)
		}
		handles[i] = unit.NewHandle(path)
		if err := g.AddUnit(in, handles[i]); err != nil {
			return nil, nil, err
		}
	}

	summaries := make([]*summary.Summary, len(b.Inputs))
	readErrs := make([]error, len(b.Inputs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range b.Inputs {
		if !b.Previous[in] {
			continue
		}
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			summaries[i], readErrs[i] = b.Reader.Read(egCtx, handles[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var malformed []Malformed
	for i, in := range b.Inputs {
		if !b.Previous[in] {
			logger.Debug("Skipping summary of new input.", "input", in.File)
			continue
		}
		if err := readErrs[i]; err != nil {
			sink.Emit(diag.Warningf(handles[i].File(), "malformed dependency summary %s: %v", handles[i].File(), err))
			malformed = append(malformed, Malformed{Input: in, Summary: handles[i].File(), Err: err})
			continue
		}
		g.Integrate(handles[i], summaries[i])
	}

	g.MarkLoaded()
	logger.Info("Built initial dependency graph.", "inputs", len(b.Inputs), "nodes", g.Len(), "malformed", len(malformed))
	return g, malformed, nil
}

package compose

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateIdle State = iota
	StateLoadingAssets
	StateCompositing
	StateExported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingAssets:
		return "loading_assets"
	case StateCompositing:
		return "compositing"
	case StateExported:
		return "exported"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Exporter: один на редактор. Одновременно идёт не больше одного экспорта,
// второй запрос отклоняется, а не ставится в очередь.
type Exporter struct {
	log   *slog.Logger
	c     *Compositor
	busy  atomic.Bool
	state atomic.Int32
}

func NewExporter(log *slog.Logger, c *Compositor) *Exporter {
	return &Exporter{log: log, c: c}
}

func (e *Exporter) State() State { return State(e.state.Load()) }

func (e *Exporter) InFlight() bool { return e.busy.Load() }

func (e *Exporter) Run(ctx context.Context, job Job) (*Output, error) {
	const op = "compose.Exporter.Run"

	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer e.busy.Store(false)

	log := e.log.With(slog.String("op", op), slog.String("template", job.Template.Code))
	start := time.Now()

	e.set(StateLoadingAssets)
	a, err := e.c.Load(ctx, job)
	if err != nil {
		e.set(StateFailed)
		log.Error("export failed while loading assets", slog.String("error", err.Error()))
		return nil, err
	}

	e.set(StateCompositing)
	out, err := e.c.Encode(e.c.Draw(job, a))
	if err != nil {
		e.set(StateFailed)
		log.Error("export failed while encoding", slog.String("error", err.Error()))
		return nil, err
	}

	e.set(StateExported)
	log.Info("export done",
		slog.Int("bytes", len(out.Image)),
		slog.Int("width", out.Width),
		slog.Int("height", out.Height),
		slog.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (e *Exporter) set(s State) {
	e.state.Store(int32(s))
}

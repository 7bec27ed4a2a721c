package relation

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/treescan/pkg/row"
)

// RecordStream carries the rows of a scan, all files concatenated in
// enumeration order. Per-file errors are reported on Errors and the
// stream continues with the remaining files; both channels close when
// the scan completes or the context is canceled.
type RecordStream struct {
	Rows   <-chan row.Row
	Errors <-chan error
}

// Stream scans all files sequentially and emits their rows on a
// buffered channel. Within one file rows arrive in entry order; files
// follow enumeration order. Callers needing per-file parallelism should
// use Scan and drive the producers themselves.
func (r *Relation) Stream(ctx context.Context, columns []string, filters []Predicate) (*RecordStream, error) {
	scans, err := r.Scan(ctx, columns, filters)
	if err != nil {
		return nil, err
	}

	rows := make(chan row.Row, r.cfg.Performance.BufferSize)
	errs := make(chan error, len(scans))

	go func() {
		defer close(rows)
		defer close(errs)

		for _, fs := range scans {
			if ctx.Err() != nil {
				return
			}
			r.streamFile(ctx, fs, rows, errs)
		}
	}()

	return &RecordStream{Rows: rows, Errors: errs}, nil
}

// streamFile drains one file's producer into the row channel. Errors
// abort only this file's stream.
func (r *Relation) streamFile(ctx context.Context, fs *FileScan, rows chan<- row.Row, errs chan<- error) {
	if r.collector != nil {
		t := r.collector.NewTimer()
		defer t.Stop()
	}

	p, err := fs.Open(ctx)
	if err != nil {
		r.logger.Warn("skipping file",
			zap.String("file", fs.Path()),
			zap.Error(err))
		errs <- err
		return
	}
	defer p.Close()

	var produced int64
	for p.HasNext() {
		rw, err := p.Next()
		if err != nil {
			errs <- err
			return
		}
		select {
		case rows <- rw:
			produced++
		case <-ctx.Done():
			return
		}
	}

	if r.collector != nil {
		r.collector.AddRows(produced)
		r.collector.FileScanned("success")
	}
	r.logger.Debug("file streamed",
		zap.String("file", fs.Path()),
		zap.Int64("rows", produced))
}

// Command kot-archive compresses old kitchen order tickets into an archive
// directory and removes the originals.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const ticketPrefix = "kot-table-"

func main() {
	var (
		dir       string
		olderThan time.Duration
		workers   int
	)

	flag.StringVar(&dir, "dir", "kots", "directory containing kitchen order tickets")
	flag.DurationVar(&olderThan, "older-than", 24*time.Hour, "archive tickets last modified before this age")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "number of concurrent compressors")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	n, err := run(ctx, dir, time.Now().Add(-olderThan), workers)
	if err != nil {
		slog.Error("ticket archive failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("ticket archive completed", slog.Int64("archived", n))
}

// run archives every ticket in dir modified before cutoff into dir/archive.
func run(ctx context.Context, dir string, cutoff time.Time, workers int) (int64, error) {
	tickets, err := staleTickets(dir, cutoff)
	if err != nil {
		return 0, err
	}
	if len(tickets) == 0 {
		slog.Info("no tickets to archive", slog.String("dir", dir))
		return 0, nil
	}

	archiveDir := filepath.Join(dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create archive dir")
	}

	slog.Info("archiving tickets", slog.Int("count", len(tickets)), slog.String("to", archiveDir))

	var archived atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, name := range tickets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := archiveTicket(filepath.Join(dir, name), filepath.Join(archiveDir, name+".gz")); err != nil {
				return errors.Wrapf(err, "archive %s", name)
			}
			archived.Add(1)
			return nil
		})
	}

	err = g.Wait()
	return archived.Load(), err
}

// staleTickets lists ticket files in dir last modified before cutoff.
func staleTickets(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, ticketPrefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", name)
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, name)
		}
	}
	return names, nil
}

// archiveTicket writes a gzip copy of src to dst and removes src once the
// copy is flushed to disk. A failed copy never leaves dst behind, so the next
// run can retry the ticket.
func archiveTicket(src, dst string) (rerr error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "open ticket")
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	closed := false
	defer func() {
		if rerr == nil {
			return
		}
		if !closed {
			_ = out.Close()
		}
		_ = os.Remove(dst)
	}()

	gz := pgzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	if _, err := io.Copy(gz, in); err != nil {
		return errors.Wrap(err, "compress")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip")
	}
	if err := out.Sync(); err != nil {
		return errors.Wrap(err, "sync archive")
	}
	closed = true
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "close archive")
	}

	return os.Remove(src)
}

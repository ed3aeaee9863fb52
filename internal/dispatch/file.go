// Package dispatch delivers kitchen order tickets: as text files in a ticket
// directory and as messages for kitchen display screens.
package dispatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/kitchen"
)

const maxNameAttempts = 100

var _ kitchen.Dispatcher = (*FileDispatcher)(nil)

// FileDispatcher writes each ticket to its own file in a directory.
type FileDispatcher struct {
	dir string
}

// NewFileDispatcher creates dir if needed.
func NewFileDispatcher(dir string) (*FileDispatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create ticket dir")
	}
	return &FileDispatcher{dir: dir}, nil
}

// Dir returns the ticket directory.
func (d *FileDispatcher) Dir() string {
	return d.dir
}

// Dispatch renders t and writes it to a new file. Existing files are never
// overwritten: on a name clash a numeric suffix is added.
func (d *FileDispatcher) Dispatch(ctx context.Context, t kitchen.Ticket) (kitchen.Receipt, error) {
	if t.Empty() {
		return kitchen.Receipt{}, kitchen.ErrEmptyTicket
	}
	if err := ctx.Err(); err != nil {
		return kitchen.Receipt{}, err
	}

	body := []byte(kitchen.Render(t))
	base := TicketFileName(t.TableID, t.CreatedAt)

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d", base, attempt)
		}
		path := filepath.Join(d.dir, name+".txt")

		err := writeExclusive(path, body)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return kitchen.Receipt{}, errors.Wrap(err, "write ticket")
		}

		zctx.From(ctx).Info("KOT saved", zap.String("path", path))
		return kitchen.Receipt{Location: path, Message: "KOT saved successfully."}, nil
	}
	return kitchen.Receipt{}, errors.Errorf("no free ticket name for %s", base)
}

func writeExclusive(path string, body []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// TicketFileName returns the file name, without extension, of a ticket for
// the table created at ts. The timestamp is UTC ISO 8601 with ':' and '.'
// replaced so the name is portable.
func TicketFileName(tableID string, ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("kot-table-%s-%s", tableID, stamp)
}

package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/event"
)

const defaultBuffer = 256

// Recorder is the dashboard read-model feeder: it implements event.Sink
// with a buffered channel so Publish never blocks the ledger's critical
// section, and a single drain goroutine persists records in emit order.
type Recorder struct {
	repo event.Repository
	ch   chan event.Event
	log  *slog.Logger
	done chan struct{}
}

func NewRecorder(repo event.Repository, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		repo: repo,
		ch:   make(chan event.Event, defaultBuffer),
		log:  log,
		done: make(chan struct{}),
	}
}

// Publish hands the event to the drain worker. A full buffer drops the
// event rather than stalling a ledger operation; the drop is logged.
func (r *Recorder) Publish(e event.Event) {
	select {
	case r.ch <- e:
	default:
		r.log.Warn("journal buffer full, event dropped", "event_id", e.ID, "type", e.Type, "loan_id", e.LoanID)
	}
}

// Run drains events until ctx is cancelled, then flushes what is queued.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case e := <-r.ch:
			r.persist(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.ch:
					r.persist(e)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (r *Recorder) Wait() { <-r.done }

func (r *Recorder) persist(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.repo.Create(ctx, event.ToRecord(e)); err != nil {
		r.log.Error("journal persist failed", "event_id", e.ID, "type", e.Type, "err", err)
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/logger"
	"github.com/killallgit/compass/pkg/notify"
)

var (
	// ErrNoBody is reported when the transport opened a stream without a
	// readable body.
	ErrNoBody = errors.New("no response body for streaming")

	// ErrIdleTimeout fails a stream that delivered nothing for longer than
	// the configured idle timeout.
	ErrIdleTimeout = errors.New("stream idle timeout")
)

// Opener starts the backend request and returns the event stream body.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Options tune a Driver. Zero values fall back to defaults, except
// IdleTimeout where zero disables the timeout.
type Options struct {
	SuccessMarker string
	IdleTimeout   time.Duration
	ReadBuffer    int

	// AgentName maps an agent kind to the name used in failure notices.
	AgentName func(kind string) string
}

const defaultReadBuffer = 4096

// FailureText is the user-facing text that replaces a failed entry.
func FailureText(err error) string {
	return fmt.Sprintf("Sorry, something went wrong: %v", err)
}

// Driver reads an event stream and folds it into one streaming entry of a
// chat.Store.
type Driver struct {
	store    *chat.Store
	notifier notify.Notifier
	opts     Options
	log      *logger.ComponentLogger
}

func NewDriver(store *chat.Store, notifier notify.Notifier, opts Options) *Driver {
	if notifier == nil {
		notifier = notify.Nop
	}
	if opts.SuccessMarker == "" {
		opts.SuccessMarker = DefaultSuccessMarker
	}
	if opts.ReadBuffer <= 0 {
		opts.ReadBuffer = defaultReadBuffer
	}
	if opts.AgentName == nil {
		opts.AgentName = func(kind string) string { return kind }
	}
	return &Driver{
		store:    store,
		notifier: notifier,
		opts:     opts,
		log:      logger.WithComponent("stream"),
	}
}

// Stream appends a streaming assistant entry, opens the stream and applies it
// until it ends. Failures to open or read are recorded on the entry and
// notified; the only error returned is a refusal to begin a second stream.
func (d *Driver) Stream(ctx context.Context, agentKind string, open Opener) (string, error) {
	id, err := d.store.BeginAssistantStream(agentKind)
	if err != nil {
		return "", err
	}
	d.log.Debug("stream started", "entry", id, "agent", agentKind)

	body, err := open(ctx)
	if err == nil && body == nil {
		err = ErrNoBody
	}
	if err != nil {
		d.fail(id, agentKind, err)
		return id, nil
	}

	if err := d.run(ctx, id, agentKind, body); err != nil {
		d.log.Debug("stream ended with error", "entry", id, "error", err)
	}
	return id, nil
}

// Run applies an already opened body to the streaming entry id.
func (d *Driver) Run(ctx context.Context, id string, body io.ReadCloser) error {
	kind := ""
	if e, ok := d.store.Get(id); ok {
		kind = e.AgentKind
	}
	return d.run(ctx, id, kind, body)
}

type readResult struct {
	data []byte
	err  error
}

func (d *Driver) run(ctx context.Context, id, kind string, body io.ReadCloser) error {
	defer body.Close()

	chunks := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		buf := make([]byte, d.opts.ReadBuffer)
		for {
			n, err := body.Read(buf)
			var data []byte
			if n > 0 {
				data = append([]byte(nil), buf[:n]...)
			}
			select {
			case chunks <- readResult{data: data, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var idle <-chan time.Time
	var timer *time.Timer
	if d.opts.IdleTimeout > 0 {
		timer = time.NewTimer(d.opts.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	dec := NewDecoder()
	for {
		select {
		case <-ctx.Done():
			d.fail(id, kind, ctx.Err())
			return ctx.Err()

		case <-idle:
			d.fail(id, kind, ErrIdleTimeout)
			return ErrIdleTimeout

		case r := <-chunks:
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.opts.IdleTimeout)
			}

			if len(r.data) > 0 {
				events, errs := dec.Feed(r.data)
				d.logDecodeErrors(id, errs)
				finished, err := d.apply(id, events)
				if err != nil || finished {
					return err
				}
			}

			if errors.Is(r.err, io.EOF) {
				events, errs := dec.Flush()
				d.logDecodeErrors(id, errs)
				finished, err := d.apply(id, events)
				if err != nil || finished {
					return err
				}
				// The backend may close without a done event.
				return d.finalize(id)
			}
			if r.err != nil {
				err := fmt.Errorf("reading stream: %w", r.err)
				d.fail(id, kind, err)
				return err
			}
		}
	}
}

// apply folds one chunk worth of events in a single store update and reports
// whether a done event was seen. A missing or already finalized target ends
// the stream quietly.
func (d *Driver) apply(id string, events []Event) (bool, error) {
	batch := make([]Event, 0, len(events))
	finished := false
	for _, ev := range events {
		if !ev.Known() {
			d.log.Debug("ignoring unknown event", "entry", id, "type", ev.Type)
			continue
		}
		batch = append(batch, ev)
		if ev.Type == EventDone {
			finished = true
			break
		}
	}
	if len(batch) == 0 {
		return false, nil
	}

	err := d.store.Update(func(t chat.Transcript) (chat.Transcript, error) {
		return ReduceAll(t, id, batch)
	})
	if err != nil {
		if errors.Is(err, chat.ErrUnknownEntry) || errors.Is(err, chat.ErrEntryFinalized) {
			d.log.Debug("dropping events for superseded stream", "entry", id, "error", err)
			return true, nil
		}
		return true, err
	}

	for _, ev := range batch {
		if ev.IsSuccessResult(d.opts.SuccessMarker) {
			d.notifier.Success("Memory updated: " + ev.Tool)
		}
	}
	return finished, nil
}

func (d *Driver) finalize(id string) error {
	err := d.store.FinalizeStream(id)
	if errors.Is(err, chat.ErrUnknownEntry) || errors.Is(err, chat.ErrEntryFinalized) {
		d.log.Debug("finalize skipped", "entry", id, "error", err)
		return nil
	}
	return err
}

func (d *Driver) fail(id, kind string, cause error) {
	d.log.Error("stream failed", "entry", id, "agent", kind, "error", cause)

	err := d.store.FailStream(id, FailureText(cause))
	if errors.Is(err, chat.ErrUnknownEntry) || errors.Is(err, chat.ErrEntryFinalized) {
		d.log.Debug("fail skipped", "entry", id, "error", err)
		return
	}
	d.notifier.Error("Error communicating with " + d.opts.AgentName(kind))
}

func (d *Driver) logDecodeErrors(id string, errs []error) {
	for _, err := range errs {
		d.log.Warn("skipping malformed event", "entry", id, "error", err)
	}
}

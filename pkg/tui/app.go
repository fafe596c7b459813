package tui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/controllers"
	"github.com/killallgit/compass/pkg/logger"
	"github.com/killallgit/compass/pkg/notify"
)

const (
	tickInterval = 150 * time.Millisecond
	busyNotice   = "Please wait for the current answer"
)

// Controller is the chat behaviour the screen drives.
type Controller interface {
	Send(ctx context.Context, text string) error
	SelectAgent(kind string) error
	Clear(ctx context.Context) error
	Agent() string
	Agents() *agents.Registry
	Session() string
	Busy() bool
	Entries() []chat.Entry
	Store() *chat.Store
}

var _ Controller = (*controllers.ChatController)(nil)

// App is the interactive chat screen. All drawing happens on the goroutine
// running Run; background work reports back with posted events.
type App struct {
	screen     tcell.Screen
	controller Controller
	toasts     *notify.Queue

	input   InputField
	scroll  int
	follow  bool
	spinner Spinner
	pending int
	sending bool

	ready     chan struct{}
	readyOnce sync.Once

	closed atomic.Bool
	log    *logger.ComponentLogger
}

func NewApp(screen tcell.Screen, controller Controller, toasts *notify.Queue) *App {
	if toasts == nil {
		toasts = notify.NewQueue(notify.DefaultTTL)
	}
	a := &App{
		screen:     screen,
		controller: controller,
		toasts:     toasts,
		input:      NewInputField(),
		follow:     true,
		ready:      make(chan struct{}),
		log:        logger.WithComponent("tui"),
	}
	a.closed.Store(true)
	return a
}

// Ready is closed once Run has initialised the screen and drawn the first
// frame.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Run initialises the screen and processes events until the user quits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return err
	}
	defer a.screen.Fini()

	a.screen.EnablePaste()
	a.screen.Clear()

	// Echoed log errors would draw over the screen.
	defer logger.MuteConsole()()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.closed.Store(false)
	defer a.closed.Store(true)

	a.controller.Store().OnChange(func() {
		a.post(NewTranscriptChangedEvent())
	})
	a.toasts.OnPush(func() {
		a.post(NewNotificationEvent())
	})

	go a.ticker(ctx)
	go func() {
		<-ctx.Done()
		a.post(&quitEvent{EventTime: stamp()})
	}()

	a.draw()
	a.readyOnce.Do(func() { close(a.ready) })
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *quitEvent:
			a.waitPending()
			return nil
		case *tcell.EventResize:
			a.screen.Sync()
		case *tcell.EventKey:
			if a.handleKey(ctx, ev) {
				cancel()
				a.waitPending()
				return nil
			}
		case *SendDoneEvent:
			a.pending--
			a.sending = false
			a.handleSendDone(ev.Err)
		case *ClearDoneEvent:
			a.pending--
			if ev.Err != nil {
				a.log.Warn("clear failed", "error", ev.Err)
			}
			a.follow = true
		case *tickEvent:
			a.spinner = a.spinner.WithVisibility(a.controller.Busy()).NextFrame()
		}
		a.draw()
	}
}

// handleKey applies a key press and reports whether the app should quit.
func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		a.submit(ctx)
	case tcell.KeyTab:
		a.nextAgent()
	case tcell.KeyCtrlL:
		a.clear(ctx)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.input = a.input.DeleteBackward()
	case tcell.KeyDelete:
		a.input = a.input.DeleteForward()
	case tcell.KeyLeft:
		a.input = a.input.Left()
	case tcell.KeyRight:
		a.input = a.input.Right()
	case tcell.KeyHome, tcell.KeyCtrlA:
		a.input = a.input.Home()
	case tcell.KeyEnd, tcell.KeyCtrlE:
		a.input = a.input.End()
	case tcell.KeyCtrlU:
		a.input = a.input.Clear()
	case tcell.KeyUp:
		a.scrollBy(-1)
	case tcell.KeyDown:
		a.scrollBy(1)
	case tcell.KeyPgUp:
		a.scrollBy(-a.pageSize())
	case tcell.KeyPgDn:
		a.scrollBy(a.pageSize())
	case tcell.KeyRune:
		a.input = a.input.InsertRune(ev.Rune())
	}
	return false
}

func (a *App) submit(ctx context.Context) {
	if a.input.Blank() {
		return
	}
	// sending covers the gap before the goroutine marks the controller busy.
	if a.sending || a.controller.Busy() {
		a.toasts.Info(busyNotice)
		return
	}

	text := a.input.Content()
	a.input = a.input.Clear()
	a.follow = true
	a.spinner = a.spinner.WithVisibility(true)
	a.pending++
	a.sending = true

	go func() {
		a.post(NewSendDoneEvent(a.controller.Send(ctx, text)))
	}()
}

func (a *App) handleSendDone(err error) {
	switch {
	case err == nil:
	case errors.Is(err, controllers.ErrBusy):
		a.toasts.Info(busyNotice)
	case errors.Is(err, context.Canceled):
	default:
		a.log.Warn("send rejected", "error", err)
		a.toasts.Error(err.Error())
	}
	a.spinner = a.spinner.WithVisibility(a.controller.Busy())
}

// nextAgent and clear run while an answer streams: the transcript is reset
// at once and the old stream's remaining events are dropped.
func (a *App) nextAgent() {
	next := a.controller.Agents().Next(a.controller.Agent())
	if err := a.controller.SelectAgent(next.Kind); err != nil {
		a.toasts.Error(err.Error())
		return
	}
	a.follow = true
}

func (a *App) clear(ctx context.Context) {
	a.pending++
	go func() {
		a.post(NewClearDoneEvent(a.controller.Clear(ctx)))
	}()
}

// waitPending drains in-flight background work so nothing posts to a
// finalised screen.
func (a *App) waitPending() {
	deadline := time.After(2 * time.Second)
	for a.pending > 0 {
		select {
		case <-deadline:
			return
		default:
		}
		switch a.screen.PollEvent().(type) {
		case *SendDoneEvent, *ClearDoneEvent:
			a.pending--
		case nil:
			return
		}
	}
}

// post hands ev to the event loop. Events raised after Run returned are
// dropped.
func (a *App) post(ev tcell.Event) {
	if a.closed.Load() {
		return
	}
	if err := a.screen.PostEvent(ev); err != nil {
		a.log.Debug("event dropped", "error", err)
	}
}

func (a *App) ticker(ctx context.Context) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.post(&tickEvent{EventTime: stamp()})
		}
	}
}

func (a *App) messageArea() Rect {
	w, h := a.screen.Size()
	area, _, _, _ := NewLayout(w, h).CalculateAreas()
	return area
}

func (a *App) pageSize() int {
	if h := a.messageArea().Height - 1; h > 0 {
		return h
	}
	return 1
}

func (a *App) scrollBy(delta int) {
	area := a.messageArea()
	total := len(BuildLines(a.controller.Entries(), area.Width, a.controller.Agents().Name))
	maxScroll := MaxScroll(total, area.Height)

	a.scroll += delta
	if a.scroll < 0 {
		a.scroll = 0
	}
	if a.scroll >= maxScroll {
		a.scroll = maxScroll
		a.follow = true
		return
	}
	a.follow = false
}

func (a *App) draw() {
	w, h := a.screen.Size()
	messageArea, alertArea, inputArea, statusArea := NewLayout(w, h).CalculateAreas()

	lines := BuildLines(a.controller.Entries(), messageArea.Width, a.controller.Agents().Name)
	if a.follow {
		a.scroll = MaxScroll(len(lines), messageArea.Height)
	}
	busy := a.sending || a.controller.Busy()

	RenderMessages(a.screen, lines, messageArea, a.scroll)
	latest, ok := a.toasts.Latest(time.Now())
	RenderAlert(a.screen, latest, ok, alertArea)
	RenderInput(a.screen, a.input, inputArea, busy)

	agent, _ := a.controller.Agents().Get(a.controller.Agent())
	RenderStatus(a.screen, StatusBar{
		Agent:   agent.Name,
		Model:   agent.Model,
		Busy:    busy,
		Spinner: a.spinner,
	}, statusArea)

	a.screen.Show()
}

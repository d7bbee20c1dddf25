// Package adapter is the single routing point between a dialog controller and
// its presentation layer.
//
// Controller pushes and presentation queries are synchronous and forwarded
// unmodified. Presentation interaction events are queued as tagged Events and
// handed to the controller in issue order by Flush or Run. The automatic
// sign-in continuation rides the same queue.
package adapter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
)

// Controller is the native side: it owns the dialog state and answers
// presentation-assist queries.
type Controller interface {
	// HandleEvent receives interaction events in delivery order.
	HandleEvent(ev Event)
	IconForField(ft model.FieldType, input string) model.Image
	PlaceholderForField(s model.SectionID, ft model.FieldType) string
	LabelForSection(s model.SectionID) string
}

// View is the presentation side: it renders pushed state and holds the
// user's in-progress form values.
type View interface {
	UpdateNotificationArea(notes []model.Notification)
	UpdateSection(s model.SectionID, visible bool, fields []model.Field, items []model.MenuItem, selected int)
	ModelChanged(fetchingIsActive bool)
	UpdateAccountChooser(names []string, selected int)
	UpdateProgressBar(value float64)

	Section(s model.SectionID) []model.Field
	Cvc() string
	ShouldUseBillingForShipping() bool
	ShouldSaveDetailsInWallet() bool
	ShouldSaveDetailsLocally() bool
}

// Binding names the one controller an adapter serves for its lifetime.
type Binding struct {
	ID   uuid.UUID
	ctrl Controller
}

// Config tunes an Adapter.
type Config struct {
	// QueueHint is the initial event queue capacity.
	QueueHint int
	// SignInTimeout bounds each sign-in attempt; 0 disables the deadline.
	SignInTimeout time.Duration
}

// DefaultConfig returns the defaults used by the dialog binaries.
func DefaultConfig() Config {
	return Config{QueueHint: 16, SignInTimeout: signin.DefaultTimeout}
}

// Adapter routes calls between one controller and one view.
type Adapter struct {
	binding *Binding
	view    View
	signin  *signin.Helper
	events  *queue
	log     *zap.Logger

	deliverMu sync.Mutex
	closed    atomic.Bool
}

// New binds ctrl and view. tokens and accounts back the automatic sign-in flow.
func New(cfg Config, ctrl Controller, view View, tokens signin.TokenSource, accounts signin.AccountSource, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.QueueHint <= 0 {
		cfg.QueueHint = DefaultConfig().QueueHint
	}
	b := &Binding{ID: uuid.Must(uuid.NewV4()), ctrl: ctrl}
	a := &Adapter{
		binding: b,
		view:    view,
		events:  newQueue(cfg.QueueHint),
		log:     log.With(zap.Stringer("binding", b.ID)),
	}
	a.signin = signin.New(tokens, accounts, a, cfg.SignInTimeout, a.log)
	return a
}

// BindingID identifies the bound controller in logs.
func (a *Adapter) BindingID() uuid.UUID { return a.binding.ID }

// --- Controller → View ---

// UpdateNotificationArea replaces all notification banners.
func (a *Adapter) UpdateNotificationArea(notes []model.Notification) {
	if !a.alive("UpdateNotificationArea") {
		return
	}
	a.view.UpdateNotificationArea(clone(notes))
}

// UpdateSection replaces one section's content. selected is model.NoSelection
// or an index into items of this same call.
func (a *Adapter) UpdateSection(s model.SectionID, visible bool, fields []model.Field, items []model.MenuItem, selected int) {
	a.mustSection("UpdateSection", s)
	if selected < model.NoSelection || selected >= len(items) {
		a.violation("UpdateSection", fmt.Errorf("%w: selected %d with %d menu items", errs.ErrIndexOutOfRange, selected, len(items)))
	}
	if !a.alive("UpdateSection") {
		return
	}
	a.log.Debug("update section",
		zap.Stringer("section", s),
		zap.Bool("visible", visible),
		zap.Int("fields", len(fields)),
		zap.Int("items", len(items)),
	)
	a.view.UpdateSection(s, visible, clone(fields), clone(items), selected)
}

// ModelChanged invalidates every handle the view holds. fetchingIsActive
// asks the view to show a loading state.
func (a *Adapter) ModelChanged(fetchingIsActive bool) {
	if !a.alive("ModelChanged") {
		return
	}
	a.log.Debug("model changed", zap.Bool("fetching", fetchingIsActive))
	a.view.ModelChanged(fetchingIsActive)
}

// UpdateAccountChooser replaces the account list and its selection together.
func (a *Adapter) UpdateAccountChooser(names []string, selected int) {
	if selected < model.NoSelection || selected >= len(names) {
		a.violation("UpdateAccountChooser", fmt.Errorf("%w: selected %d with %d accounts", errs.ErrIndexOutOfRange, selected, len(names)))
	}
	if !a.alive("UpdateAccountChooser") {
		return
	}
	a.view.UpdateAccountChooser(clone(names), selected)
}

// UpdateProgressBar sets progress in [0, 1].
func (a *Adapter) UpdateProgressBar(value float64) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		a.violation("UpdateProgressBar", fmt.Errorf("%w: %v", errs.ErrProgressRange, value))
	}
	if !a.alive("UpdateProgressBar") {
		return
	}
	a.view.UpdateProgressBar(value)
}

// --- queries ---

// GetSection returns the view's current fields for s; empty if never pushed.
func (a *Adapter) GetSection(s model.SectionID) []model.Field {
	a.mustSection("GetSection", s)
	out := clone(a.view.Section(s))
	if out == nil {
		out = []model.Field{}
	}
	return out
}

// GetCvc returns the CVC typed into the view.
func (a *Adapter) GetCvc() string { return a.view.Cvc() }

// ShouldUseBillingForShipping reads the view's checkbox.
func (a *Adapter) ShouldUseBillingForShipping() bool { return a.view.ShouldUseBillingForShipping() }

// ShouldSaveDetailsInWallet reads the view's checkbox.
func (a *Adapter) ShouldSaveDetailsInWallet() bool { return a.view.ShouldSaveDetailsInWallet() }

// ShouldSaveDetailsLocally reads the view's checkbox.
func (a *Adapter) ShouldSaveDetailsLocally() bool { return a.view.ShouldSaveDetailsLocally() }

// GetIconForField asks the controller for an input decoration.
func (a *Adapter) GetIconForField(ft model.FieldType, input string) model.Image {
	return a.binding.ctrl.IconForField(ft, input)
}

// GetPlaceholderForField asks the controller for placeholder text.
func (a *Adapter) GetPlaceholderForField(s model.SectionID, ft model.FieldType) string {
	a.mustSection("GetPlaceholderForField", s)
	return a.binding.ctrl.PlaceholderForField(s, ft)
}

// GetLabelForSection asks the controller for a section title.
func (a *Adapter) GetLabelForSection(s model.SectionID) string {
	a.mustSection("GetLabelForSection", s)
	return a.binding.ctrl.LabelForSection(s)
}

// GetUserAccountNames enumerates device accounts. Never blocks, never nil.
func (a *Adapter) GetUserAccountNames() []string { return a.signin.AccountNames() }

// --- View → Controller events ---

// ItemSelected queues a menu row choice.
func (a *Adapter) ItemSelected(s model.SectionID, index int) {
	a.mustSection("ItemSelected", s)
	a.post(ItemSelected{Section: s, Index: index})
}

// AccountSelected queues an account chooser choice.
func (a *Adapter) AccountSelected(index int) { a.post(AccountSelected{Index: index}) }

// EditingStart queues the start of an edit session for s.
func (a *Adapter) EditingStart(s model.SectionID) {
	a.mustSection("EditingStart", s)
	a.post(EditingStart{Section: s})
}

// EditingComplete queues the commit of an edit session for s.
func (a *Adapter) EditingComplete(s model.SectionID) {
	a.mustSection("EditingComplete", s)
	a.post(EditingComplete{Section: s})
}

// EditingCancel queues the abandonment of an edit session for s.
func (a *Adapter) EditingCancel(s model.SectionID) {
	a.mustSection("EditingCancel", s)
	a.post(EditingCancel{Section: s})
}

// DialogSubmit queues the submit action.
func (a *Adapter) DialogSubmit() { a.post(DialogSubmit{}) }

// DialogCancel queues the cancel action.
func (a *Adapter) DialogCancel() { a.post(DialogCancel{}) }

// --- sign-in ---

// StartAutomaticSignIn begins token acquisition for account, superseding any
// attempt for another account. The outcome arrives as a SignInContinued event.
func (a *Adapter) StartAutomaticSignIn(account string) signin.Generation {
	if !a.alive("StartAutomaticSignIn") {
		return a.signin.Current()
	}
	return a.signin.Start(account)
}

// SignInState reports the sign-in state machine position.
func (a *Adapter) SignInState() (signin.State, string) { return a.signin.State() }

// ContinueAutomaticSignIn implements signin.Continuation. It runs on the
// sign-in worker and only enqueues.
func (a *Adapter) ContinueAutomaticSignIn(gen signin.Generation, creds model.Credentials) {
	a.post(SignInContinued{Generation: gen, Credentials: creds})
}

// --- delivery ---

// Flush delivers every queued event to the controller on the calling
// goroutine and returns how many were delivered. If another Flush or Run is
// delivering, Flush returns 0 and leaves the events to it; this also makes a
// Flush from inside HandleEvent a no-op.
func (a *Adapter) Flush() int {
	if !a.deliverMu.TryLock() {
		return 0
	}
	defer a.release()

	n := 0
	for {
		ev, ok := a.events.pop()
		if !ok {
			return n
		}
		if a.deliver(ev) {
			n++
		}
	}
}

// Run delivers events as they arrive until ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	for {
		a.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.events.ready:
		}
	}
}

// release hands delivery back. An event pushed after the last empty pop but
// before the unlock may have had its ready token spent on a losing TryLock,
// so the token is re-armed.
func (a *Adapter) release() {
	a.deliverMu.Unlock()
	if a.events.len() > 0 {
		a.events.signal()
	}
}

// Pending reports the number of undelivered events.
func (a *Adapter) Pending() int { return a.events.len() }

// Close cancels any in-flight sign-in, waits for it and drops undelivered
// events. Later calls are logged no-ops.
func (a *Adapter) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.signin.Close()
	dropped := 0
	for {
		if _, ok := a.events.pop(); !ok {
			break
		}
		dropped++
	}
	a.log.Info("adapter closed", zap.Int("dropped_events", dropped))
}

func (a *Adapter) post(ev Event) {
	if !a.alive(ev.Kind().String()) {
		return
	}
	a.events.push(ev)
}

func (a *Adapter) deliver(ev Event) bool {
	if c, ok := ev.(SignInContinued); ok && c.Generation != a.signin.Current() {
		a.log.Debug("stale sign-in continuation dropped", zap.Uint64("gen", uint64(c.Generation)))
		return false
	}
	a.log.Debug("event", zap.Stringer("kind", ev.Kind()))
	a.binding.dispatch(ev)
	return true
}

func (b *Binding) dispatch(ev Event) { b.ctrl.HandleEvent(ev) }

func (a *Adapter) alive(op string) bool {
	if a.closed.Load() {
		a.log.Warn("call after close ignored", zap.String("op", op))
		return false
	}
	return true
}

func (a *Adapter) mustSection(op string, s model.SectionID) {
	if !s.Valid() {
		a.violation(op, fmt.Errorf("%w: %d", errs.ErrInvalidSection, int(s)))
	}
}

// violation aborts on a protocol error; these are never recoverable input.
func (a *Adapter) violation(op string, err error) {
	a.log.Error("protocol violation", zap.String("op", op), zap.Error(err))
	panic(fmt.Errorf("adapter: %s: %w", op, err))
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

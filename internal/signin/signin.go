// Package signin runs automatic sign-in token acquisition for one dialog.
//
// Each Start opens a new generation. Only the newest generation may report
// back, and it reports exactly once: real credentials on success, the empty
// model.Credentials on any failure.
package signin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/marshal"
	"github.com/and161185/autofill-glue/internal/model"
)

// DefaultTimeout bounds a single token acquisition attempt.
const DefaultTimeout = 30 * time.Second

// Generation distinguishes successive sign-in attempts.
type Generation uint64

// TokenSource exchanges a device account for session tokens.
type TokenSource interface {
	// IssueTokens may block on the network; it is only called off the UI path.
	IssueTokens(ctx context.Context, account string) (model.Credentials, error)
}

// AccountSource enumerates device accounts without blocking.
type AccountSource interface {
	AccountNames() []string
}

// Continuation receives the single terminal result of a generation.
type Continuation interface {
	ContinueAutomaticSignIn(gen Generation, creds model.Credentials)
}

// State is the sign-in state.
type State int

// Sign-in states.
const (
	Idle State = iota
	Requesting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Helper owns the sign-in state of one adapter.
type Helper struct {
	src      TokenSource
	accounts AccountSource
	cont     Continuation
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	gen     Generation
	state   State
	account string
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// New constructs a Helper. timeout <= 0 disables the per-attempt deadline.
func New(src TokenSource, accounts AccountSource, cont Continuation, timeout time.Duration, log *zap.Logger) *Helper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Helper{src: src, accounts: accounts, cont: cont, timeout: timeout, log: log}
}

// Start begins token acquisition for account, superseding any attempt for a
// different account. A repeated Start for the account already being
// requested keeps the in-flight attempt.
func (h *Helper) Start(account string) Generation {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return h.gen
	}
	if h.state == Requesting && h.account == account {
		return h.gen
	}
	if h.cancel != nil {
		h.cancel()
		h.log.Debug("sign-in superseded",
			zap.Uint64("gen", uint64(h.gen)),
			zap.String("account", h.account),
		)
	}

	h.gen++
	h.state = Requesting
	h.account = account

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), h.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	h.cancel = cancel

	gen := h.gen
	h.wg.Add(1)
	go h.run(ctx, cancel, gen, account)

	h.log.Info("sign-in started", zap.Uint64("gen", uint64(gen)), zap.String("account", account))
	return gen
}

func (h *Helper) run(ctx context.Context, cancel context.CancelFunc, gen Generation, account string) {
	defer h.wg.Done()
	defer cancel()

	creds, err := h.acquire(ctx, account)
	if err != nil {
		h.log.Info("sign-in failed", zap.Uint64("gen", uint64(gen)), zap.Error(err))
		creds = model.Credentials{}
	}
	h.finish(gen, creds)
}

// acquire never lets a panic or partial result escape as success.
func (h *Helper) acquire(ctx context.Context, account string) (creds model.Credentials, err error) {
	if account == "" {
		return model.Credentials{}, fmt.Errorf("%w: empty account", errs.ErrSignInFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: token source panic: %v", errs.ErrSignInFailed, r)
		}
	}()

	creds, err = h.src.IssueTokens(ctx, account)
	if err != nil {
		if errors.Is(err, errs.ErrSignInFailed) {
			return model.Credentials{}, err
		}
		return model.Credentials{}, fmt.Errorf("%w: %w", errs.ErrSignInFailed, err)
	}
	if creds.SID == "" || creds.LSID == "" {
		return model.Credentials{}, fmt.Errorf("%w: incomplete tokens", errs.ErrSignInFailed)
	}
	if creds.Account == "" {
		creds.Account = account
	}
	return creds, nil
}

func (h *Helper) finish(gen Generation, creds model.Credentials) {
	h.mu.Lock()
	if gen != h.gen || h.state != Requesting {
		h.mu.Unlock()
		h.log.Debug("sign-in result discarded", zap.Uint64("gen", uint64(gen)))
		return
	}
	if creds.Empty() {
		h.state = Failed
	} else {
		h.state = Succeeded
	}
	h.cancel = nil
	h.mu.Unlock()

	h.cont.ContinueAutomaticSignIn(gen, creds)
}

// Current returns the newest generation; zero before the first Start.
func (h *Helper) Current() Generation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// State returns the current state and the account it concerns.
func (h *Helper) State() (State, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.account
}

// AccountNames enumerates device accounts; never nil.
func (h *Helper) AccountNames() []string {
	if h.accounts == nil {
		return []string{}
	}
	return marshal.Build(h.accounts.AccountNames(), func(_ int, n string) string { return n })
}

// Close cancels an in-flight attempt without reporting it and waits for the
// worker to exit. Later Starts are ignored.
func (h *Helper) Close() {
	h.mu.Lock()
	h.closed = true
	h.gen++ // no outstanding generation may report
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.state = Idle
	h.mu.Unlock()
	h.wg.Wait()
}

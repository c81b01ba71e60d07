// Package discount holds the state machine gating the two-step discount
// flow: a code must be checked and come back valid before it may be applied.
package discount

import (
	"context"
	"errors"
	"sync"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/domain"
)

// CodeState is the validation state of the current discount code.
type CodeState int

const (
	// StateUnchecked is the initial state, re-entered whenever the code
	// text changes.
	StateUnchecked CodeState = iota
	// StateChecking means a validity request is in flight.
	StateChecking
	StateValid
	StateInvalid
)

func (s CodeState) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateChecking:
		return "checking"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	}
	return "unknown"
}

var (
	// ErrEmptyCode rejects a check with no code entered. No network call
	// is made.
	ErrEmptyCode = errors.New("discount code is empty")
	// ErrNotValidated rejects an apply while the code is not in the valid
	// state.
	ErrNotValidated = errors.New("discount code not validated")
	// ErrOperationInProgress rejects a call while another is in flight for
	// the same workflow; both would mutate the single validation state.
	ErrOperationInProgress = errors.New("operation already in progress")
	// ErrInvalidDiscount rejects a discount percentage outside [0, 100].
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	// ErrApplyRejected means the backend answered the apply with
	// isValid:false.
	ErrApplyRejected = errors.New("discount was not applied")
	// ErrNoService rejects an operation that needs a fetched service.
	ErrNoService = errors.New("no service loaded")
)

// API is the backend surface the workflow drives.
type API interface {
	GetService(ctx context.Context, serviceID int) (*domain.Service, error)
	CheckCode(ctx context.Context, code string) (bool, error)
	ApplyDiscount(ctx context.Context, code string, serviceID int) (bool, error)
	UpdateService(ctx context.Context, serviceID, discount int) error
}

// Workflow owns the discount state for one screen activation: the service
// being viewed, the entered code, and the code's validation state. One
// workflow supports a single in-flight request; overlapping calls are
// rejected rather than raced.
type Workflow struct {
	api API

	mu      sync.Mutex
	busy    bool
	code    string
	state   CodeState
	service *domain.Service
}

// New creates a workflow over the given API.
func New(api API) *Workflow {
	return &Workflow{api: api}
}

// SetCode records the entered code text. Any change while the code is valid
// or invalid resets the validation state to unchecked.
func (w *Workflow) SetCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if code == w.code {
		return
	}
	w.code = code
	if w.state == StateValid || w.state == StateInvalid {
		w.state = StateUnchecked
	}
}

// Code returns the current code text.
func (w *Workflow) Code() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.code
}

// State returns the current validation state.
func (w *Workflow) State() CodeState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Service returns a copy of the service fetched for this activation, or nil
// before a successful fetch. A copy keeps callers off the internal record,
// which UpdateDiscount mutates under the workflow lock.
func (w *Workflow) Service() *domain.Service {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.service == nil {
		return nil
	}
	svc := *w.service
	return &svc
}

// begin claims the single in-flight slot. It fails when a call is already
// running.
func (w *Workflow) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrOperationInProgress
	}
	w.busy = true
	return nil
}

func (w *Workflow) end() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// Check submits the current code for validation and returns the resulting
// state. Validity is never assumed on failure: an API error rolls the state
// back to unchecked and is surfaced. The result is committed only if the code
// is still the one that was sent; an edit during the request settles the
// state at unchecked, since the answer no longer describes the current code.
func (w *Workflow) Check(ctx context.Context) (CodeState, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return w.state, ErrOperationInProgress
	}
	if w.code == "" {
		state := w.state
		w.mu.Unlock()
		return state, ErrEmptyCode
	}
	w.busy = true
	w.state = StateChecking
	code := w.code
	w.mu.Unlock()

	valid, err := w.api.CheckCode(ctx, code)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if w.code != code {
		w.state = StateUnchecked
		if err != nil {
			return w.state, err
		}
		return w.state, nil
	}
	if err != nil {
		w.state = StateUnchecked
		return w.state, err
	}
	if valid {
		w.state = StateValid
	} else {
		w.state = StateInvalid
	}
	return w.state, nil
}

// Apply submits the validated code against the fetched service. The code
// must be in the valid state; the surrounding screen disables the action, but
// the workflow rejects the call defensively as well. A failed apply leaves
// the state valid so the user may retry without re-checking.
func (w *Workflow) Apply(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrOperationInProgress
	}
	if w.state != StateValid {
		w.mu.Unlock()
		return ErrNotValidated
	}
	if w.service == nil {
		w.mu.Unlock()
		return ErrNoService
	}
	w.busy = true
	code := w.code
	serviceID := w.service.ID
	w.mu.Unlock()
	defer w.end()

	applied, err := w.api.ApplyDiscount(ctx, code, serviceID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrApplyRejected
	}
	return nil
}

// FetchService loads the service for this activation. On failure any
// previously fetched service is left untouched.
func (w *Workflow) FetchService(ctx context.Context, serviceID int) (*domain.Service, error) {
	if err := w.begin(); err != nil {
		return nil, err
	}
	defer w.end()

	svc, err := w.api.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	kept := *svc
	w.service = &kept
	w.mu.Unlock()
	return svc, nil
}

// UpdateDiscount persists a new discount percentage for the fetched service.
// The range is enforced at the point of edit, but re-validated here; on
// failure the previous value stands.
func (w *Workflow) UpdateDiscount(ctx context.Context, percent int) error {
	if !domain.ValidDiscount(percent) {
		return ErrInvalidDiscount
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrOperationInProgress
	}
	if w.service == nil {
		w.mu.Unlock()
		return ErrNoService
	}
	w.busy = true
	serviceID := w.service.ID
	w.mu.Unlock()
	defer w.end()

	if err := w.api.UpdateService(ctx, serviceID, percent); err != nil {
		return err
	}

	w.mu.Lock()
	w.service.Discount = percent
	w.mu.Unlock()
	return nil
}

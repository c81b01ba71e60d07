package discount

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/domain"
)

// fakeAPI is a scriptable API double. Zero values answer every call with
// success; error fields and hooks override per call.
type fakeAPI struct {
	mu sync.Mutex

	service    *domain.Service
	serviceErr error

	codeValid bool
	checkErr  error
	checkHook func() // runs while the check call is "in flight"

	applyOK  bool
	applyErr error

	updateErr error

	checkCalls  int
	applyCalls  int
	updateCalls int
}

func (f *fakeAPI) GetService(_ context.Context, _ int) (*domain.Service, error) {
	if f.serviceErr != nil {
		return nil, f.serviceErr
	}
	return f.service, nil
}

func (f *fakeAPI) CheckCode(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	f.checkCalls++
	hook := f.checkHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.codeValid, f.checkErr
}

func (f *fakeAPI) ApplyDiscount(_ context.Context, _ string, _ int) (bool, error) {
	f.mu.Lock()
	f.applyCalls++
	f.mu.Unlock()
	return f.applyOK, f.applyErr
}

func (f *fakeAPI) UpdateService(_ context.Context, _, _ int) error {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	return f.updateErr
}

func newFetchedWorkflow(t *testing.T, api *fakeAPI) *Workflow {
	t.Helper()
	if api.service == nil {
		api.service = &domain.Service{ID: 5, Discount: 10}
	}
	w := New(api)
	if _, err := w.FetchService(context.Background(), api.service.ID); err != nil {
		t.Fatalf("FetchService() error: %v", err)
	}
	return w
}

func TestCheckEmptyCodeNoNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	w := New(api)

	_, err := w.Check(context.Background())
	if !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("Check() error = %v, want ErrEmptyCode", err)
	}
	if api.checkCalls != 0 {
		t.Errorf("check reached the backend %d times for an empty code", api.checkCalls)
	}
	if w.State() != StateUnchecked {
		t.Errorf("State() = %v, want unchecked", w.State())
	}
}

func TestCheckValidCode(t *testing.T) {
	api := &fakeAPI{codeValid: true}
	w := New(api)
	w.SetCode("SAVE20")

	state, err := w.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if state != StateValid {
		t.Errorf("Check() = %v, want valid", state)
	}
}

func TestCheckInvalidCode(t *testing.T) {
	api := &fakeAPI{codeValid: false}
	w := New(api)
	w.SetCode("NOPE")

	state, err := w.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if state != StateInvalid {
		t.Errorf("Check() = %v, want invalid", state)
	}
}

func TestCheckErrorRollsBackToUnchecked(t *testing.T) {
	api := &fakeAPI{checkErr: errors.New("connection refused")}
	w := New(api)
	w.SetCode("SAVE20")

	state, err := w.Check(context.Background())
	if err == nil {
		t.Fatal("Check() error = nil, want error")
	}
	if state != StateUnchecked {
		t.Errorf("Check() = %v, want unchecked after error", state)
	}
	if w.State() != StateUnchecked {
		t.Errorf("State() = %v, want unchecked after error", w.State())
	}
}

func TestCheckIsCheckingWhileInFlight(t *testing.T) {
	api := &fakeAPI{codeValid: true}
	w := New(api)
	w.SetCode("SAVE20")

	observed := make(chan CodeState, 1)
	api.checkHook = func() { observed <- w.State() }

	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if got := <-observed; got != StateChecking {
		t.Errorf("in-flight state = %v, want checking", got)
	}
}

func TestOverlappingCheckRejected(t *testing.T) {
	api := &fakeAPI{codeValid: true}
	w := New(api)
	w.SetCode("SAVE20")

	secondDone := make(chan error, 1)
	release := make(chan struct{})
	api.checkHook = func() {
		// Second call issued while the first is in flight.
		go func() {
			_, err := w.Check(context.Background())
			secondDone <- err
		}()
		<-release
	}

	go func() {
		err := <-secondDone
		if !errors.Is(err, ErrOperationInProgress) {
			t.Errorf("overlapping Check() error = %v, want ErrOperationInProgress", err)
		}
		close(release)
	}()

	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if api.checkCalls != 1 {
		t.Errorf("backend saw %d check calls, want 1", api.checkCalls)
	}
}

func TestEditResetsValidation(t *testing.T) {
	api := &fakeAPI{codeValid: true}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if w.State() != StateValid {
		t.Fatalf("State() = %v, want valid", w.State())
	}

	w.SetCode("SAVE21")
	if w.State() != StateUnchecked {
		t.Errorf("State() after edit = %v, want unchecked", w.State())
	}

	// After the reset the apply precondition fails.
	if err := w.Apply(context.Background()); !errors.Is(err, ErrNotValidated) {
		t.Errorf("Apply() after edit error = %v, want ErrNotValidated", err)
	}
	if api.applyCalls != 0 {
		t.Errorf("apply reached the backend %d times without validation", api.applyCalls)
	}
}

func TestEditDuringCheckSettlesUnchecked(t *testing.T) {
	api := &fakeAPI{codeValid: true, applyOK: true}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")

	// The code changes while the check request is in flight, so the
	// backend's answer is for a code the user no longer has entered.
	api.checkHook = func() { w.SetCode("SAVE99") }

	state, err := w.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if state != StateUnchecked {
		t.Errorf("Check() = %v, want unchecked after mid-flight edit", state)
	}
	if w.State() != StateUnchecked {
		t.Errorf("State() = %v, want unchecked after mid-flight edit", w.State())
	}

	// The edited code was never validated, so apply must refuse it.
	if err := w.Apply(context.Background()); !errors.Is(err, ErrNotValidated) {
		t.Errorf("Apply() error = %v, want ErrNotValidated", err)
	}
	if api.applyCalls != 0 {
		t.Errorf("apply reached the backend %d times for an unvalidated code", api.applyCalls)
	}
}

func TestEditDuringFailedCheckSettlesUnchecked(t *testing.T) {
	api := &fakeAPI{checkErr: errors.New("connection refused")}
	w := New(api)
	w.SetCode("SAVE20")
	api.checkHook = func() { w.SetCode("SAVE99") }

	state, err := w.Check(context.Background())
	if err == nil {
		t.Fatal("Check() error = nil, want error")
	}
	if state != StateUnchecked {
		t.Errorf("Check() = %v, want unchecked", state)
	}
}

func TestSetCodeSameTextKeepsState(t *testing.T) {
	api := &fakeAPI{codeValid: true}
	w := New(api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	w.SetCode("SAVE20")
	if w.State() != StateValid {
		t.Errorf("State() = %v, want valid after no-op edit", w.State())
	}
}

func TestApplyWithoutValidationRejected(t *testing.T) {
	api := &fakeAPI{applyOK: true}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")

	if err := w.Apply(context.Background()); !errors.Is(err, ErrNotValidated) {
		t.Fatalf("Apply() error = %v, want ErrNotValidated", err)
	}
	if api.applyCalls != 0 {
		t.Errorf("apply reached the backend %d times, want 0", api.applyCalls)
	}
}

func TestApplySuccess(t *testing.T) {
	api := &fakeAPI{codeValid: true, applyOK: true}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if err := w.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if w.State() != StateValid {
		t.Errorf("State() after apply = %v, want valid", w.State())
	}
}

func TestApplyRejectedKeepsValidState(t *testing.T) {
	api := &fakeAPI{codeValid: true, applyOK: false}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if err := w.Apply(context.Background()); !errors.Is(err, ErrApplyRejected) {
		t.Fatalf("Apply() error = %v, want ErrApplyRejected", err)
	}
	// The code stays validated so apply may be retried without re-checking.
	if w.State() != StateValid {
		t.Errorf("State() after rejected apply = %v, want valid", w.State())
	}

	api.applyOK = true
	if err := w.Apply(context.Background()); err != nil {
		t.Errorf("retried Apply() error: %v", err)
	}
}

func TestApplyErrorKeepsValidState(t *testing.T) {
	api := &fakeAPI{codeValid: true, applyErr: errors.New("HTTP 500: boom")}
	w := newFetchedWorkflow(t, api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if err := w.Apply(context.Background()); err == nil {
		t.Fatal("Apply() error = nil, want error")
	}
	if w.State() != StateValid {
		t.Errorf("State() after apply error = %v, want valid", w.State())
	}
}

func TestFetchServiceStoresResult(t *testing.T) {
	api := &fakeAPI{service: &domain.Service{ID: 5, Discount: 10}}
	w := New(api)

	svc, err := w.FetchService(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchService() error: %v", err)
	}
	if svc.Discount != 10 {
		t.Errorf("Discount = %d, want 10", svc.Discount)
	}
	if w.Service() == nil || w.Service().ID != 5 {
		t.Errorf("Service() = %+v, want ID 5", w.Service())
	}
}

func TestServiceReturnsCopy(t *testing.T) {
	api := &fakeAPI{service: &domain.Service{ID: 5, Discount: 10}}
	w := New(api)
	fetched, err := w.FetchService(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchService() error: %v", err)
	}

	// Writes through returned pointers must not reach the workflow's record.
	fetched.Discount = 99
	w.Service().Discount = 99
	if got := w.Service().Discount; got != 10 {
		t.Errorf("Discount = %d, want 10 after caller-side writes", got)
	}

	// The reverse holds too: a committed update is invisible through
	// previously returned pointers.
	before := w.Service()
	if err := w.UpdateDiscount(context.Background(), 25); err != nil {
		t.Fatalf("UpdateDiscount() error: %v", err)
	}
	if before.Discount != 10 {
		t.Errorf("stale copy Discount = %d, want 10", before.Discount)
	}
	if got := w.Service().Discount; got != 25 {
		t.Errorf("Discount = %d, want 25", got)
	}
}

func TestFetchServiceFailureLeavesPreviousState(t *testing.T) {
	api := &fakeAPI{service: &domain.Service{ID: 5, Discount: 10}}
	w := New(api)
	if _, err := w.FetchService(context.Background(), 5); err != nil {
		t.Fatalf("FetchService() error: %v", err)
	}

	api.serviceErr = errors.New("HTTP 502: bad gateway")
	if _, err := w.FetchService(context.Background(), 5); err == nil {
		t.Fatal("FetchService() error = nil, want error")
	}
	if svc := w.Service(); svc == nil || svc.Discount != 10 {
		t.Errorf("Service() after failed refetch = %+v, want previous {ID:5 Discount:10}", svc)
	}
}

func TestUpdateDiscountRange(t *testing.T) {
	api := &fakeAPI{}
	w := newFetchedWorkflow(t, api)

	for _, v := range []int{-1, 101} {
		if err := w.UpdateDiscount(context.Background(), v); !errors.Is(err, ErrInvalidDiscount) {
			t.Errorf("UpdateDiscount(%d) error = %v, want ErrInvalidDiscount", v, err)
		}
	}
	if api.updateCalls != 0 {
		t.Errorf("out-of-range update reached the backend %d times", api.updateCalls)
	}

	// The boundaries are accepted.
	for _, v := range []int{0, 100} {
		if err := w.UpdateDiscount(context.Background(), v); err != nil {
			t.Errorf("UpdateDiscount(%d) error: %v", v, err)
		}
	}
}

func TestUpdateDiscountCommitsOnSuccess(t *testing.T) {
	api := &fakeAPI{}
	w := newFetchedWorkflow(t, api)

	if err := w.UpdateDiscount(context.Background(), 25); err != nil {
		t.Fatalf("UpdateDiscount() error: %v", err)
	}
	if got := w.Service().Discount; got != 25 {
		t.Errorf("Discount = %d, want 25", got)
	}
}

func TestUpdateDiscountFailureKeepsPreviousValue(t *testing.T) {
	api := &fakeAPI{updateErr: errors.New("HTTP 500: boom")}
	w := newFetchedWorkflow(t, api)

	if err := w.UpdateDiscount(context.Background(), 25); err == nil {
		t.Fatal("UpdateDiscount() error = nil, want error")
	}
	if got := w.Service().Discount; got != 10 {
		t.Errorf("Discount = %d, want previous value 10", got)
	}
}

func TestOperationsRequireFetchedService(t *testing.T) {
	api := &fakeAPI{codeValid: true, applyOK: true}
	w := New(api)
	w.SetCode("SAVE20")
	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if err := w.Apply(context.Background()); !errors.Is(err, ErrNoService) {
		t.Errorf("Apply() error = %v, want ErrNoService", err)
	}
	if err := w.UpdateDiscount(context.Background(), 25); !errors.Is(err, ErrNoService) {
		t.Errorf("UpdateDiscount() error = %v, want ErrNoService", err)
	}
}

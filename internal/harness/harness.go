package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avillar/storecheck/internal/authn"
	"github.com/avillar/storecheck/internal/contract"
	"github.com/avillar/storecheck/internal/expect"
	"github.com/avillar/storecheck/internal/request"
	"github.com/avillar/storecheck/internal/store"
	"github.com/avillar/storecheck/internal/testutil"
)

// Harness drives scenarios against the backend under test.
type Harness struct {
	cfg      *Config
	client   *http.Client
	cache    *authn.Cache
	registry request.Registry
	builder  *request.Builder
	records  *store.Store
	logger   *slog.Logger
	clock    *testutil.SeqClock
}

// Options carries the optional collaborators of a Harness.
type Options struct {
	// Records persists run records when non-nil.
	Records *store.Store

	// Logger receives per-step progress. Nil discards.
	Logger *slog.Logger

	// Client overrides the HTTP client, e.g. an httptest client in tests.
	// Nil builds one from the config timeout.
	Client *http.Client
}

// New creates a Harness for cfg.
func New(cfg *Config, opts Options) *Harness {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Timeout)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Harness{
		cfg:      cfg,
		client:   client,
		cache:    authn.NewCache(cfg.Auth, client),
		registry: request.DefaultRegistry(),
		builder:  request.NewBuilder(cfg.BaseURL),
		records:  opts.Records,
		logger:   logger,
		clock:    testutil.NewSeqClock(),
	}
}

// RunScenario executes every step of sc in order.
//
// Contract mismatches do not stop the run: they are collected per step and
// the Result carries the verdict. The error return is reserved for
// infrastructure failures, which abort the run because later verdicts
// would be meaningless.
func (h *Harness) RunScenario(ctx context.Context, sc *Scenario) (*Result, error) {
	if err := sc.Validate(h.registry); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Scenario: sc.Name,
		Pass:     true,
	}
	h.clock.Reset()

	if h.records != nil {
		if err := h.records.BeginRun(ctx, res.RunID, sc.Name, time.Now()); err != nil {
			return nil, err
		}
	}

	for i, step := range sc.Steps {
		event, err := h.runStep(ctx, step)
		if err != nil {
			if h.records != nil {
				// Best effort: the run row stays, marked failed.
				_ = h.records.FinishRun(ctx, res.RunID, false)
			}
			return nil, &InfraError{Scenario: sc.Name, Step: i + 1, Call: step.Call, Err: err}
		}

		res.Events = append(res.Events, event)
		if !event.Pass {
			res.Pass = false
		}

		h.logger.Debug("step complete",
			"scenario", sc.Name,
			"seq", event.Seq,
			"operation", event.Operation,
			"identity", event.Identity,
			"status", event.Status,
			"pass", event.Pass)

		if h.records != nil {
			rec := store.CallRecord{
				RunID:          res.RunID,
				Seq:            int(event.Seq),
				Operation:      event.Operation,
				Identity:       event.Identity,
				Status:         event.Status,
				ExpectedStatus: event.ExpectedStatus,
				Pass:           event.Pass,
				Mismatches:     event.Mismatches,
			}
			if err := h.records.RecordCall(ctx, rec); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
		}
	}

	if h.records != nil {
		if err := h.records.FinishRun(ctx, res.RunID, res.Pass); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	h.logger.Info("scenario complete", "scenario", sc.Name, "pass", res.Pass, "steps", len(res.Events))
	return res, nil
}

func (h *Harness) runStep(ctx context.Context, step Step) (TraceEvent, error) {
	op, err := h.registry.Lookup(step.Call)
	if err != nil {
		return TraceEvent{}, err
	}

	token, err := h.token(ctx, step)
	if err != nil {
		return TraceEvent{}, err
	}

	req, err := h.builder.Build(ctx, op, request.Input{
		Params:      step.Params,
		Query:       step.Query,
		Body:        step.Body,
		BearerToken: token,
	})
	if err != nil {
		return TraceEvent{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("dispatch: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return TraceEvent{}, fmt.Errorf("read response body: %w", err)
	}

	// A status outside the contract set means the backend itself broke, not
	// the contract. That is never a verdict.
	if !expect.ContractStatuses[resp.StatusCode] {
		return TraceEvent{}, fmt.Errorf("backend returned non-contract status %d", resp.StatusCode)
	}

	mismatches, err := expect.Check(resp.StatusCode, body, step.Expect)
	if err != nil {
		return TraceEvent{}, err
	}

	event := TraceEvent{
		Seq:            h.clock.Next(),
		Operation:      op.Name,
		Identity:       step.Identity,
		Status:         resp.StatusCode,
		ExpectedStatus: step.Expect.Status,
		Pass:           len(mismatches) == 0,
	}
	for _, m := range mismatches {
		event.Mismatches = append(event.Mismatches, m.String())
	}
	return event, nil
}

// token resolves the bearer token a step runs under. Anonymous steps carry
// none; invalid_token steps corrupt a freshly resolved client token.
func (h *Harness) token(ctx context.Context, step Step) (string, error) {
	id := contract.Identity(step.Identity)
	if id == contract.Anonymous {
		return "", nil
	}

	creds, err := h.cfg.Credentials(id)
	if err != nil {
		return "", err
	}
	token, err := h.cache.Token(ctx, creds)
	if err != nil {
		return "", err
	}

	if id == contract.InvalidToken || step.CorruptToken {
		token = authn.Corrupt(token)
	}
	return token, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// Dispatcher is the single entry point every pipeline step calls through to
// reach a model. It owns process-wide concurrency limiting and per-model
// circuit breaking; callers never talk to providerClient directly.
type Dispatcher struct {
	models   *config.ModelRegistry
	sem      *semaphore.Weighted
	breakers *breakerRegistry
	client   *providerClient
	log      *slog.Logger

	maxAttempts int
	callTimeout time.Duration
}

// NewDispatcher builds a Dispatcher bounded by cfg.Dispatch.MaxConcurrentRequests
// concurrent in-flight calls, using cfg.Dispatch.CallTimeoutSec as the default
// per-call HTTP timeout.
func NewDispatcher(models *config.ModelRegistry, cfg config.DispatchDefaults, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	weight := int64(cfg.MaxConcurrentRequests)
	if weight <= 0 {
		weight = 5
	}
	timeout := time.Duration(cfg.CallTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxAttempts := cfg.GeneralMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 8
	}

	return &Dispatcher{
		models:      models,
		sem:         semaphore.NewWeighted(weight),
		breakers:    newBreakerRegistry(),
		client:      newProviderClient(timeout),
		log:         log,
		maxAttempts: maxAttempts,
		callTimeout: timeout,
	}
}

// Call places a single completion request against modelID.
func (d *Dispatcher) Call(ctx context.Context, modelID string, messages []Message, opts CallOptions) (*Response, error) {
	return d.dispatch(ctx, modelID, messages, nil, opts)
}

// CallWithTools places a completion request offering tools for the model to
// invoke; the model may return Response.Message.ToolCalls instead of content.
func (d *Dispatcher) CallWithTools(ctx context.Context, modelID string, messages []Message, tools []ToolDef, opts CallOptions) (*Response, error) {
	return d.dispatch(ctx, modelID, messages, tools, opts)
}

func (d *Dispatcher) dispatch(ctx context.Context, modelID string, messages []Message, tools []ToolDef, opts CallOptions) (*Response, error) {
	model, err := d.models.Get(modelID)
	if err != nil {
		return nil, err
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("llm: acquire dispatch slot: %w", err)
	}
	defer d.sem.Release(1)

	breaker := d.breakers.forModel(modelID)

	var lastBody string
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	bctx := backoff.WithContext(policy, ctx)

	var resp *Response
	attempt := 0
	op := func() error {
		attempt++
		out, err := breaker.Execute(func() (interface{}, error) {
			return d.client.call(ctx, model, messages, tools, opts)
		})
		if err == nil {
			resp = out.(*Response)
			return nil
		}

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return backoff.Permanent(fmt.Errorf("llm: circuit open for model %s: %w", modelID, err))
		}

		var body string
		if httpErr, ok := asHTTPError(err); ok {
			body = httpErr.Body
		}
		lastBody = body

		class := ClassifyError(err, body)
		d.log.Warn("llm call failed", "model", modelID, "attempt", attempt, "class", class.String(), "error", err)

		switch class {
		case ErrorFatal:
			return backoff.Permanent(err)
		case ErrorRateLimited, ErrorTransient:
			if attempt >= d.maxAttempts {
				return backoff.Permanent(err)
			}
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	if err := backoff.Retry(op, bctx); err != nil {
		return nil, fmt.Errorf("llm: dispatch to %s failed after %d attempt(s), last body %q: %w", modelID, attempt, truncate(lastBody, 500), err)
	}
	return resp, nil
}

func asHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

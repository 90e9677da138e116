package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/actiongroup/internal/hooks"
	"github.com/soyeahso/actiongroup/internal/logging"
)

// CreatedByTag is attached to every provisioned resource.
const CreatedByTag = "Bedrock Agent invoking Lambda"

// DefaultResource is the resource value used when the agent sends none.
const DefaultResource = "N/A"

// ErrUnsupportedResource is returned in strict mode for unrecognized kinds.
var ErrUnsupportedResource = errors.New("unsupported resource kind")

// Provisioner creates messaging resources. Implementations own retries.
type Provisioner interface {
	CreateQueue(ctx context.Context, region, name string, tags map[string]string) error
	CreateTopic(ctx context.Context, region, name string, tags map[string]string) error
}

// ProvisionRequest is what the dispatcher derived from the parameters.
type ProvisionRequest struct {
	Kind     ResourceKind
	Resource string
	Region   string
	Name     string
}

// Result describes one dispatch.
type Result struct {
	Response    Response
	Provision   ProvisionRequest
	Provisioned bool
}

// Dispatcher executes action requests against a Provisioner.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	provisioner   Provisioner
	defaultRegion string
	clock         Clock
	strict        bool
	table         []KindRule
	hooks         hooks.Emitter
	log           *logging.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the clock used to synthesize names.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithStrictKinds makes unrecognized resource kinds fail with ErrUnsupportedResource
// instead of succeeding without provisioning anything.
func WithStrictKinds(strict bool) Option {
	return func(d *Dispatcher) {
		d.strict = strict
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(log *logging.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log.Sub("dispatcher")
	}
}

// WithHooks publishes action_dispatched and action_failed events to h.
func WithHooks(h hooks.Emitter) Option {
	return func(d *Dispatcher) {
		d.hooks = h
	}
}

// NewDispatcher creates a dispatcher. defaultRegion is used when the request
// has no region parameter.
func NewDispatcher(p Provisioner, defaultRegion string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provisioner:   p,
		defaultRegion: defaultRegion,
		clock:         SystemClock,
		table:         KindTable,
		log:           logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan derives the provisioning request from decoded parameters.
func (d *Dispatcher) Plan(m ParameterMap) ProvisionRequest {
	resource := m.String("resource", DefaultResource)
	region := m.String("region", "")
	if region == "" {
		region = d.defaultRegion
	}
	return ProvisionRequest{
		Kind:     classifyWith(d.table, resource),
		Resource: resource,
		Region:   region,
		Name:     ResolveName(m, d.clock),
	}
}

// Dispatch decodes req, provisions the requested resource and returns the
// success response. Codec and provisioner errors are returned as-is; on error
// the Result still carries whatever was derived before the failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	res, err := d.dispatch(ctx, req)
	d.emit(ctx, req, res, err)
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (Result, error) {
	params, err := Decode(req.Parameters)
	if err != nil {
		return Result{}, err
	}

	plan := d.Plan(params)
	res := Result{Provision: plan}

	log := d.log.With("function", req.Function)
	tags := map[string]string{"CreatedBy": CreatedByTag}

	switch plan.Kind {
	case KindSQS:
		if err := d.provisioner.CreateQueue(ctx, plan.Region, plan.Name, tags); err != nil {
			return res, err
		}
		res.Provisioned = true
	case KindSNS:
		if err := d.provisioner.CreateTopic(ctx, plan.Region, plan.Name, tags); err != nil {
			return res, err
		}
		res.Provisioned = true
	default:
		if d.strict {
			return res, fmt.Errorf("%w: %q", ErrUnsupportedResource, plan.Resource)
		}
		log.Warn().Str("resource", plan.Resource).Msg("unrecognized resource kind, nothing provisioned")
	}

	if res.Provisioned {
		log.Info().
			Str("kind", plan.Kind.String()).
			Str("region", plan.Region).
			Str("name", plan.Name).
			Msg("resource provisioned")
	}

	res.Response = NewResponse(req, "", SuccessMessage(req.Function))
	return res, nil
}

func (d *Dispatcher) emit(ctx context.Context, req Request, res Result, err error) {
	if d.hooks == nil {
		return
	}
	data := map[string]any{
		hooks.KeyActionGroup: req.ActionGroup,
		hooks.KeyFunction:    req.Function,
		hooks.KeyKind:        res.Provision.Kind.String(),
		hooks.KeyResource:    res.Provision.Resource,
		hooks.KeyRegion:      res.Provision.Region,
		hooks.KeyName:        res.Provision.Name,
		hooks.KeyProvisioned: res.Provisioned,
	}
	if err != nil {
		data[hooks.KeyError] = err.Error()
		d.hooks.Emit(ctx, hooks.EventActionFailed, data)
		return
	}
	d.hooks.Emit(ctx, hooks.EventActionDispatched, data)
}

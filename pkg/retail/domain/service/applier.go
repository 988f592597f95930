package service

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"retailservice/pkg/retail/domain/model"
)

var tracer = otel.Tracer("retailservice/applier")

type EventDispatcher interface {
	Dispatch(event model.Event) error
}

type Outcome int

const (
	Applied Outcome = iota
	NotFound
	VersionConflict
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case VersionConflict:
		return "version_conflict"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the business outcome of one Apply call.
// Cause explains every outcome other than Applied.
type Result struct {
	Outcome Outcome
	Record  *model.Record
	Created bool
	Changed bool
	Cause   error
}

// Applier turns a proposed update into a version-checked store write.
// It never retries: a lost race is reported as VersionConflict and the
// caller decides whether to resubmit. The returned error is reserved for
// unexpected faults such as an unreachable store.
type Applier interface {
	Apply(ctx context.Context, update model.ProposedUpdate) (Result, error)
}

// NewApplier builds an Applier; a nil dispatcher drops events.
func NewApplier(store model.RecordStore, dispatcher EventDispatcher) Applier {
	if dispatcher == nil {
		dispatcher = discardDispatcher{}
	}
	return &applier{store: store, dispatcher: dispatcher}
}

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(model.Event) error { return nil }

type applier struct {
	store      model.RecordStore
	dispatcher EventDispatcher
}

func (a *applier) Apply(ctx context.Context, update model.ProposedUpdate) (result Result, err error) {
	ctx, span := tracer.Start(ctx, "retail.apply", trace.WithAttributes(
		attribute.String("retail.intent", string(update.Intent)),
		attribute.String("retail.identity", update.Target().String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("retail.outcome", result.Outcome.String()))
		}
		span.End()
	}()

	if err := update.Validate(); err != nil {
		return rejected(Malformed, err), nil
	}

	kind := update.Kind()
	id := update.Target()

	current, err := a.store.Get(ctx, kind, id)
	if errors.Is(err, model.ErrRecordNotFound) {
		if update.Intent.Policy() == model.UpdateOnly {
			return rejected(NotFound, errors.Wrapf(err, "%s %s", kind, id.RowKey)), nil
		}
		if update.Patch.IsEmpty() {
			// nothing to create a record from
			return rejected(Malformed, errors.Wrapf(model.ErrMalformedUpdate, "no fields to create %s %s", kind, id.RowKey)), nil
		}
		return a.create(ctx, update, id)
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "get %s %s", kind, id)
	}

	if update.Patch.IsEmpty() {
		return Result{Outcome: Applied, Record: current}, nil
	}

	merged, err := update.Patch.Apply(current.Entity)
	if err != nil {
		return Result{}, err
	}

	next := &model.Record{Identity: current.Identity, Entity: merged}
	version, err := a.store.ConditionalUpdate(ctx, kind, next, current.Version)
	switch {
	case errors.Is(err, model.ErrVersionMismatch):
		return rejected(VersionConflict, errors.Wrapf(err, "%s %s at version %d", kind, id.RowKey, current.Version)), nil
	case errors.Is(err, model.ErrRecordNotFound):
		return rejected(NotFound, errors.Wrapf(err, "%s %s", kind, id.RowKey)), nil
	case err != nil:
		return Result{}, errors.Wrapf(err, "update %s %s", kind, id)
	}
	next.Version = version

	a.dispatch(update.Intent, current.Entity, next)
	return Result{Outcome: Applied, Record: next, Changed: true}, nil
}

func (a *applier) create(ctx context.Context, update model.ProposedUpdate, id model.Identity) (Result, error) {
	kind := update.Kind()
	blank, err := model.NewEntity(kind)
	if err != nil {
		return Result{}, err
	}
	entity, err := update.Patch.Apply(blank)
	if err != nil {
		return Result{}, err
	}

	record := &model.Record{Identity: id, Entity: entity}
	version, err := a.store.Create(ctx, kind, record)
	if errors.Is(err, model.ErrRecordExists) {
		// another writer created it between our read and our insert
		return rejected(VersionConflict, errors.Wrapf(err, "%s %s", kind, id.RowKey)), nil
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "create %s %s", kind, id)
	}
	record.Version = version

	a.dispatch(update.Intent, nil, record)
	return Result{Outcome: Applied, Record: record, Created: true, Changed: true}, nil
}

func (a *applier) dispatch(intent model.Intent, before model.Entity, after *model.Record) {
	if event := model.ChangeEvent(intent, before, after); event != nil {
		_ = a.dispatcher.Dispatch(event)
	}
}

func rejected(outcome Outcome, cause error) Result {
	return Result{Outcome: outcome, Cause: cause}
}

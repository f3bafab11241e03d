package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gudangkita/warehouse-service/internal/warehouse/domain"
)

var tracer = otel.Tracer("warehouse-repository")

// TracingUnitOfWorkFactory wraps a unit of work factory with tracing. Each
// transactional operation shows up as one span covering begin-to-commit.
type TracingUnitOfWorkFactory struct {
	*GormUnitOfWorkFactory
}

// NewTracingUnitOfWorkFactory creates a factory with tracing
func NewTracingUnitOfWorkFactory(inner *GormUnitOfWorkFactory) *TracingUnitOfWorkFactory {
	return &TracingUnitOfWorkFactory{GormUnitOfWorkFactory: inner}
}

// Do with tracing
func (f *TracingUnitOfWorkFactory) Do(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	return f.DoNamed(ctx, "UnitOfWork", fn)
}

// DoNamed runs a unit of work under an operation-specific span name.
func (f *TracingUnitOfWorkFactory) DoNamed(ctx context.Context, operation string, fn func(uow domain.UnitOfWork) error) error {
	ctx, span := tracer.Start(ctx, "repository."+operation,
		trace.WithAttributes(
			attribute.Bool("db.transaction", true),
			attribute.String("warehouse.operation", operation),
		),
	)
	defer span.End()

	err := f.GormUnitOfWorkFactory.Do(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

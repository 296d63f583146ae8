package retry

import (
	"context"
	"time"

	"github.com/leofalp/uigen/providers/observability"
)

func (r *run) recordAttempt(ctx context.Context, span observability.Span, attempt Attempt) {
	if r.observer == nil {
		return
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrRunID, r.id),
		observability.Int(observability.AttrAttempt, attempt.Index),
		observability.Bool(observability.AttrSucceeded, attempt.Succeeded()),
		observability.Int(observability.AttrErrorCount, len(attempt.Validation.Errors)),
		observability.Int(observability.AttrResponseSize, len(attempt.RawResponse)),
		observability.Duration(observability.AttrDuration, attempt.Elapsed),
	}
	span.SetAttributes(attrs...)

	r.observer.Counter(observability.MetricAttempts).Add(ctx, 1,
		observability.Bool(observability.AttrSucceeded, attempt.Succeeded()))
	r.observer.Histogram(observability.MetricAttemptDuration).Record(ctx, attempt.Elapsed.Seconds())

	if attempt.Succeeded() {
		span.SetStatus(observability.StatusOK, "")
		r.observer.Debug(ctx, "attempt succeeded", attrs...)
		return
	}

	span.SetStatus(observability.StatusError, attempt.Validation.Summary())
	span.AddEvent(observability.EventValidationFailed, observability.Int(observability.AttrErrorCount, len(attempt.Validation.Errors)))
	validationErrors := r.observer.Counter(observability.MetricValidationErrors)
	for _, validationErr := range attempt.Validation.Errors {
		validationErrors.Add(ctx, 1, observability.String(observability.AttrErrorCode, validationErr.Code.String()))
	}
	r.observer.Info(ctx, "attempt failed", append(attrs,
		observability.String(observability.AttrStatusDescription, attempt.Validation.Summary()))...)
}

func (r *run) finish(ctx context.Context, result *Result) {
	result.State = r.state
	result.Elapsed = time.Since(r.start)
	result.FixRate = FixRate(result.Attempts)

	if r.observer == nil {
		return
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrRunID, r.id),
		observability.String(observability.AttrState, string(result.State)),
		observability.Bool(observability.AttrSucceeded, result.Succeeded),
		observability.Int(observability.AttrAttempt, len(result.Attempts)),
		observability.Duration(observability.AttrDuration, result.Elapsed),
	}
	if result.FixRate != nil {
		attrs = append(attrs, observability.Float64(observability.AttrFixRate, *result.FixRate))
		r.observer.Histogram(observability.MetricFixRate).Record(ctx, *result.FixRate)
	}

	r.span.SetAttributes(attrs...)
	if result.Succeeded {
		r.span.SetStatus(observability.StatusOK, "")
	} else {
		r.span.SetStatus(observability.StatusError, string(result.State))
	}

	r.observer.Counter(observability.MetricRuns).Add(ctx, 1,
		observability.String(observability.AttrState, string(result.State)))
	r.observer.Histogram(observability.MetricRunDuration).Record(ctx, result.Elapsed.Seconds())

	if result.Succeeded {
		r.observer.Info(ctx, "retry run succeeded", attrs...)
	} else {
		r.observer.Warn(ctx, "retry run failed", attrs...)
	}
}

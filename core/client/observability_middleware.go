package client

import (
	"context"
	"time"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/providers/ai"
	"github.com/leofalp/uigen/providers/observability"
)

// NewObservabilityMiddleware opens an llm.request span around every generate
// call and records the request counter and duration histogram. The span is
// placed in the context, so provider adapters can annotate it with the
// details only they know (finish reason, HTTP status).
//
// New installs it as the innermost middleware when WithObserver is given.
func NewObservabilityMiddleware(observer observability.Provider, model string) Middleware {
	return func(next retry.GenerateFunc) retry.GenerateFunc {
		return func(ctx context.Context, prompt string, history []ai.Message) (string, error) {
			ctx, span := observer.StartSpan(ctx, observability.SpanLLMRequest,
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrMessagesCount, len(history)+1),
			)
			defer span.End()

			start := time.Now()
			text, err := next(ctx, prompt, history)
			elapsed := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				span.RecordError(err)
				span.SetStatus(observability.StatusError, err.Error())
				observer.Debug(ctx, "llm request failed",
					observability.String(observability.AttrLLMModel, model),
					observability.Duration(observability.AttrDuration, elapsed),
					observability.Error(err),
				)
			} else {
				span.SetAttributes(observability.Int(observability.AttrResponseSize, len(text)))
				span.SetStatus(observability.StatusOK, "")
			}

			observer.Counter(observability.MetricLLMRequests).Add(ctx, 1,
				observability.String(observability.AttrLLMModel, model),
				observability.String(observability.AttrStatus, status),
			)
			observer.Histogram(observability.MetricLLMDuration).Record(ctx, elapsed.Seconds(),
				observability.String(observability.AttrLLMModel, model),
			)
			return text, err
		}
	}
}

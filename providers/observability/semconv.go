package observability

// Attribute, span, event and metric names shared by every backend.

// --- Run attributes ---

const (
	AttrRunID        = "uigen.run.id"
	AttrAttempt      = "uigen.attempt"
	AttrMaxAttempts  = "uigen.max_attempts"
	AttrState        = "uigen.state"
	AttrSucceeded    = "uigen.succeeded"
	AttrFixRate      = "uigen.fix_rate"
	AttrErrorCount   = "uigen.validation.error_count"
	AttrErrorCode    = "uigen.validation.error_code"
	AttrBlockCount   = "uigen.extract.block_count"
	AttrComponents   = "uigen.schema.components"
	AttrResponseSize = "uigen.response.size"
	AttrTask         = "uigen.task"
)

// --- Prompt and cache attributes ---

const (
	AttrPromptKey        = "uigen.prompt.key"
	AttrPromptTokens     = "uigen.prompt.tokens" // #nosec G101 -- estimated LLM tokens, not a credential
	AttrPromptSections   = "uigen.prompt.sections"
	AttrPromptOverBudget = "uigen.prompt.over_budget"
	AttrCacheBackend     = "uigen.cache.backend"
	AttrCacheHit         = "uigen.cache.hit"
)

// --- Catalog attributes ---

const (
	AttrCatalogPath    = "uigen.catalog.path"
	AttrCatalogVersion = "uigen.catalog.version"
	AttrComponentCount = "uigen.catalog.component_count"
)

// --- LLM provider attributes ---

const (
	AttrLLMProvider     = "llm.provider"
	AttrLLMModel        = "llm.model"
	AttrLLMEndpoint     = "llm.endpoint"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrLLMTemperature  = "llm.temperature"
	AttrLLMMaxTokens    = "llm.max_tokens" // #nosec G101 -- LLM tokens, not a credential
	AttrLLMStreaming    = "llm.streaming"
	AttrMessagesCount   = "llm.request.messages_count"
)

// --- HTTP attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanGenerateUI  = "uigen.generate_ui"
	SpanRetryRun    = "uigen.retry.run"
	SpanAttempt     = "uigen.retry.attempt"
	SpanPromptBuild = "uigen.prompt.build"
	SpanLLMRequest  = "llm.request"
	SpanHistorySave = "uigen.history.save"
)

// --- Event names ---

const (
	EventStateChange      = "uigen.state.change"
	EventValidationFailed = "uigen.validation.failed"
	EventCacheInvalidated = "uigen.cache.invalidated"
	EventCatalogReloaded  = "uigen.catalog.reloaded"
)

// --- Metric names ---

const (
	MetricRuns             = "uigen.runs"
	MetricRunDuration      = "uigen.run.duration"
	MetricAttempts         = "uigen.attempts"
	MetricAttemptDuration  = "uigen.attempt.duration"
	MetricValidationErrors = "uigen.validation.errors"
	MetricFixRate          = "uigen.fix_rate"
	MetricCacheHits        = "uigen.cache.hits"
	MetricCacheMisses      = "uigen.cache.misses"
	MetricLLMRequests      = "uigen.llm.requests"
	MetricLLMDuration      = "uigen.llm.duration"
)

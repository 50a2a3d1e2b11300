package executor

import (
	"context"

	"github.com/digitallysavvy/go-ai-core/pkg/cancellation"
	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
	"github.com/digitallysavvy/go-ai-core/pkg/registry"
	"github.com/digitallysavvy/go-ai-core/pkg/streaming"
)

func (e *Executor) aliasRegistry() *registry.Registry {
	if e.Aliases != nil {
		return e.Aliases
	}
	return registry.Default()
}

// resolveModels turns model strings into a target chain via the alias
// registry. A string that resolves to nothing is a caller mistake, so the
// failure classifies as invalid_request and is never retried.
func (e *Executor) resolveModels(models []string) ([]types.ProviderTarget, *providererrors.ClassifiedError) {
	targets, err := e.aliasRegistry().ResolveAll(models)
	if err != nil {
		return nil, &providererrors.ClassifiedError{
			Kind:    providererrors.KindInvalidRequest,
			Message: err.Error(),
			Cause:   err,
		}
	}
	return targets, nil
}

// ExecuteModels is Execute with the target chain named as model strings:
// each entry may be a registered alias or a literal "provider/model" pair,
// resolved through the executor's alias registry (the process-wide default
// unless Aliases overrides it).
func (e *Executor) ExecuteModels(ctx context.Context, models []string, req types.CanonicalRequest, opts Options) (*types.GenerateResult, *CallStats, error) {
	targets, cerr := e.resolveModels(models)
	if cerr != nil {
		return nil, &CallStats{RequestID: opts.RequestID}, &ExecutionError{Last: cerr}
	}
	return e.Execute(ctx, targets, req, opts)
}

// ExecuteStreamModels is ExecuteStream with the target chain named as model
// strings, resolved the same way ExecuteModels resolves them.
func (e *Executor) ExecuteStreamModels(ctx context.Context, models []string, req types.CanonicalRequest, opts Options) (*cancellation.CancellableStream[streaming.CanonicalEvent], *CallStats, error) {
	targets, cerr := e.resolveModels(models)
	if cerr != nil {
		return nil, &CallStats{RequestID: opts.RequestID}, &ExecutionError{Last: cerr}
	}
	return e.ExecuteStream(ctx, targets, req, opts)
}

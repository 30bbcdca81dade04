package middleware

import "context"

type contextKey string

const (
	ctxOperator contextKey = "operator"
	ctxBranch   contextKey = "branch"
)

func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperator).(string); ok {
		return v
	}
	return ""
}

func BranchFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBranch).(string); ok {
		return v
	}
	return ""
}

// WithOperator injects the scanning operator into the context.
func WithOperator(ctx context.Context, operator string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperator, operator)
}

// WithBranch injects the warehouse branch into the context.
func WithBranch(ctx context.Context, branch string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBranch, branch)
}

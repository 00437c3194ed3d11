package service

import "context"

type contextKey string

const (
	operatorKey contextKey = "operator"
	projectKey  contextKey = "project"
)

// OperatorInfo defines the structured identity of an authenticated dashboard user
type OperatorInfo struct {
	UserID    uint64
	Email     string
	Role      string
	CompanyID uint64
}

// WithOperator injects the operator info into the context
func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperatorInfo retrieves the operator info from the context
func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}

// CallerProject identifies the SDK project resolved from an API key.
type CallerProject struct {
	ProjectID uint64
	CompanyID uint64
}

// WithCallerProject injects the evaluation caller's project into the context
func WithCallerProject(ctx context.Context, p *CallerProject) context.Context {
	return context.WithValue(ctx, projectKey, p)
}

// GetCallerProject retrieves the evaluation caller's project from the context
func GetCallerProject(ctx context.Context) *CallerProject {
	val, ok := ctx.Value(projectKey).(*CallerProject)
	if !ok {
		return nil
	}
	return val
}

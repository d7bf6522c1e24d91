package logging

import "context"

type contextKey string

// Context keys the *Context logging methods pick up. Callers tag a
// context once and every record logged beneath it carries the identity,
// instead of repeating the fields at each call site.
const (
	// RequestIDKey carries the API request ID.
	RequestIDKey contextKey = "request_id"

	// UserKey carries the requesting user.
	UserKey contextKey = "user"

	// RunIDKey carries the export run ID.
	RunIDKey contextKey = "run_id"

	// FormatKey carries the artifact format.
	FormatKey contextKey = "format"

	// OwnerKey carries the query owner scope.
	OwnerKey contextKey = "owner"
)

// contextFieldKeys fixes the field order on every record.
var contextFieldKeys = [...]contextKey{RequestIDKey, UserKey, RunIDKey, FormatKey, OwnerKey}

func contextValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithRequestID tags ctx with an API request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request ID, or "" when untagged.
func GetRequestID(ctx context.Context) string {
	return contextValue(ctx, RequestIDKey)
}

// WithUser tags ctx with the requesting user.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser returns the requesting user, or "" when untagged.
func GetUser(ctx context.Context) string {
	return contextValue(ctx, UserKey)
}

// WithRunID tags ctx with an export run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID returns the export run ID, or "" when untagged.
func GetRunID(ctx context.Context) string {
	return contextValue(ctx, RunIDKey)
}

// WithFormat tags ctx with an artifact format.
func WithFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, FormatKey, format)
}

// GetFormat returns the artifact format, or "" when untagged.
func GetFormat(ctx context.Context) string {
	return contextValue(ctx, FormatKey)
}

// WithOwner tags ctx with a query owner scope.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, OwnerKey, owner)
}

// GetOwner returns the query owner scope, or "" when untagged.
func GetOwner(ctx context.Context) string {
	return contextValue(ctx, OwnerKey)
}

// extractContextFields collects the tagged identity fields as key/value
// pairs for logger.With.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range contextFieldKeys {
		if v := contextValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}

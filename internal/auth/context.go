package auth

import "context"

type contextKey string

const (
	contextKeyRole     contextKey = "auth.role"
	contextKeySubject  contextKey = "auth.subject"
	contextKeyUsername contextKey = "auth.username"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, subject, username string, role Role) context.Context {
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	ctx = context.WithValue(ctx, contextKeyUsername, username)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return ctx
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts the user id from context.
func SubjectFromContext(ctx context.Context) string {
	return stringFromContext(ctx, contextKeySubject)
}

// UsernameFromContext extracts the username from context.
func UsernameFromContext(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyUsername)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}

package httpserver

import "context"

type ctxKey string

const accountKeyKey ctxKey = "gl.accountKey"

// WithAccountKey stores the authenticated account key in context.
func WithAccountKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, accountKeyKey, key)
}

// AccountKeyFromCtx fetches the account key set by the bearer guard.
func AccountKeyFromCtx(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(accountKeyKey).(string)
	return key, ok && key != ""
}

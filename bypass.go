package ratecap

import "context"

type bypassContextKey string

const bypassKey bypassContextKey = "ratecap_bypass"

// Bypass returns a copy of ctx carrying the re-entrancy marker. A limiter
// seeing the marker forwards the request without touching its store, so a
// request that passes through nested or repeated limiter middleware is
// counted once. The limiter attaches the marker itself before forwarding;
// callers only need Bypass to exempt a request up front.
func Bypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey, true)
}

// Bypassed reports whether the re-entrancy marker is attached to ctx.
func Bypassed(ctx context.Context) bool {
	marked, _ := ctx.Value(bypassKey).(bool)
	return marked
}

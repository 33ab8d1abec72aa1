package middleware

import "context"

// Cashier is the authenticated operator behind a request.
type Cashier struct {
	ID   string
	Name string
}

type cashierKey struct{}

// WithCashier stores the cashier on ctx.
func WithCashier(ctx context.Context, c Cashier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, cashierKey{}, c)
}

// CashierFromContext reports the cashier set by Auth, if any.
func CashierFromContext(ctx context.Context) (Cashier, bool) {
	if ctx == nil {
		return Cashier{}, false
	}
	c, ok := ctx.Value(cashierKey{}).(Cashier)
	return c, ok
}

// UserIDFromContext returns the cashier id or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	c, _ := CashierFromContext(ctx)
	return c.ID
}

// WithUserID is WithCashier for callers that only know the id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithCashier(ctx, Cashier{ID: userID})
}

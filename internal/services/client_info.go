package services

import "context"

type clientInfoKey struct{}

// ClientInfo identifies where a request came from for audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches info to ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the info attached by WithClientInfo, if any.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/and161185/autofill-glue/internal/signinapi"
)

type ctxKey string

const deviceIDKey ctxKey = "signin.deviceID"

// WithDeviceID stores the caller's device identifier in context.
func WithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceIDKey, id)
}

// DeviceIDFromCtx fetches the device identifier from context.
func DeviceIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok && id != ""
}

// deviceID reads the x-device-id header, falling back to the peer address.
func deviceID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, v := range md.Get(signinapi.DeviceIDHeader) {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return "peer:" + p.Addr.String()
	}
	return ""
}

// DeviceUnary returns a unary server interceptor that resolves the caller's
// device identifier for the handlers.
func DeviceUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		return next(WithDeviceID(ctx, deviceID(ctx)), req)
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// Install it after the auth interceptor so the caller's identity is known.
// Client errors log at WARN; internal failures log at ERROR.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx),
				"guest", IsGuest(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown {
				slog.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			} else {
				slog.Error("RPC error", append(attrs, "code", connect.CodeOf(err), "error", err)...)
			}

			return resp, err
		}
	}
}

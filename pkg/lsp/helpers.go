package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/zerolog"
)

func attachRequest(ctx context.Context, r *jrpc2.Request) context.Context {
	logger := zerolog.Ctx(ctx).With().Str("method", r.Method()).Logger()
	return logger.WithContext(ctx)
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{Code: jrpc2.ParseError, Message: err.Error()}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = attachRequest(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = attachRequest(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = attachRequest(ctx, r)
		return nil, method(ctx)
	})
}

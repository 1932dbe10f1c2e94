package solo

import (
	"context"
	"errors"

	"github.com/ib-77/ropline/pkg/rop"
)

func Succeed[T any](input T) rop.Result[T] {
	return rop.Success(input)
}

func Fail[T any](err error) rop.Result[T] {
	return rop.Fail[T](err)
}

func Validate[T any](ctx context.Context, input T,
	validate func(ctx context.Context, in T) (isValid bool, errMsg string)) rop.Result[T] {

	if isValid, errMsg := validate(ctx, input); !isValid {
		return Fail[T](errors.New(errMsg))
	}
	return Succeed(input)
}

func Map[In any, Out any](ctx context.Context, input In,
	onSuccess func(ctx context.Context, r In) Out) rop.Result[Out] {
	return Succeed(onSuccess(ctx, input))
}

func Try[In any, Out any](ctx context.Context, input In,
	onTryExecute func(ctx context.Context, r In) (Out, error)) rop.Result[Out] {

	out, err := onTryExecute(ctx, input)
	if err != nil {
		return Fail[Out](err)
	}
	return Succeed(out)
}

func Finally[In, Out any](ctx context.Context, input rop.Result[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out) Out {

	if input.IsSuccess() {
		return onSuccess(ctx, input.Result())
	}
	return onError(ctx, input.Err())
}

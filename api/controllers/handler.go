package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/lensretail-backend/api/responses"
	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// endpoint is the body of a controller: the success status and payload, or
// the error to render as an envelope.
type endpoint func(r *http.Request) (int, any, error)

func serve(logg *logger.Logger, fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, payload, err := fn(r)
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case status == http.StatusNoContent:
			responses.WriteNoContent(w)
		default:
			responses.WriteSuccessStatus(w, status, payload)
		}
	}
}

// unavailable answers every request when a service was not wired.
func unavailable(logg *logger.Logger, name string) http.HandlerFunc {
	return serve(logg, func(*http.Request) (int, any, error) {
		return 0, nil, serviceUnavailable(name)
	})
}

// body is a request payload that maps onto a service input.
type body[In any] interface {
	input() In
}

func decodeInput[In any, B body[In]](r *http.Request) (In, error) {
	var b B
	if err := validators.DecodeJSONBody(r, &b); err != nil {
		var zero In
		return zero, err
	}
	return b.input(), nil
}

// registry is the shape shared by the master-data services: int64 ids,
// partial-update inputs and a paged list with a per-resource filter.
type registry[In, Out, F any] interface {
	Create(ctx context.Context, input In) (*Out, error)
	Get(ctx context.Context, id int64) (*Out, error)
	List(ctx context.Context, params pagination.Params, filter F) (pagination.Result[Out], error)
	Update(ctx context.Context, id int64, input In) (*Out, error)
	Delete(ctx context.Context, id int64) error
}

type resource[In, Out, F any] struct {
	name   string
	svc    registry[In, Out, F]
	logg   *logger.Logger
	decode func(*http.Request) (In, error)
	filter func(*http.Request) (F, error)
}

func (res resource[In, Out, F]) handler(fn endpoint) http.HandlerFunc {
	if res.svc == nil {
		return unavailable(res.logg, res.name)
	}
	return serve(res.logg, fn)
}

func (res resource[In, Out, F]) create() http.HandlerFunc {
	return res.handler(func(r *http.Request) (int, any, error) {
		in, err := res.decode(r)
		if err != nil {
			return 0, nil, err
		}
		out, err := res.svc.Create(r.Context(), in)
		return http.StatusCreated, out, err
	})
}

func (res resource[In, Out, F]) get() http.HandlerFunc {
	return res.handler(func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		out, err := res.svc.Get(r.Context(), id)
		return http.StatusOK, out, err
	})
}

func (res resource[In, Out, F]) list() http.HandlerFunc {
	return res.handler(func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		filter, err := res.filter(r)
		if err != nil {
			return 0, nil, err
		}
		page, err := res.svc.List(r.Context(), params, filter)
		return http.StatusOK, page, err
	})
}

func (res resource[In, Out, F]) update() http.HandlerFunc {
	return res.handler(func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		in, err := res.decode(r)
		if err != nil {
			return 0, nil, err
		}
		out, err := res.svc.Update(r.Context(), id, in)
		return http.StatusOK, out, err
	})
}

func (res resource[In, Out, F]) remove() http.HandlerFunc {
	return res.handler(func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, res.svc.Delete(r.Context(), id)
	})
}

package diagerr

import (
	"errors"
	"log/slog"
	"strconv"
)

// Errors collects the DiagError-s of a whole pass, so that they can all be
// reported at once. A nil *Errors is an empty collection
type Errors struct {
	errs []DiagError
}

func (r *Errors) With(err ...DiagError) *Errors {
	if r == nil {
		r = &Errors{}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Errors() []DiagError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	return len(r.Errors()) > 0
}

// Err joins every collected error into one, or returns nil if there are none.
// errors.As finds the individual DiagError-s in the result
func (r *Errors) Err() error {
	if !r.HasError() {
		return nil
	}
	joined := make([]error, 0, len(r.errs))
	for _, e := range r.errs {
		joined = append(joined, e)
	}
	return errors.Join(joined...)
}

func (r *Errors) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(r.Errors()))
	for i, e := range r.Errors() {
		attrs = append(attrs, slog.Group("e"+strconv.Itoa(i), slog.String("msg", FormatWithCode(e))))
	}
	return slog.GroupValue(attrs...)
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field errors are reported by
// their json tag name.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodeJSON decodes the request body into dst and validates it. Unknown
// fields are rejected.
func DecodeJSON(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is required")
		case errors.As(err, &maxErr):
			return domain.Invalid(op, "Request body too large")
		default:
			return domain.Invalid(op, fmt.Sprintf("Malformed JSON: %v", err))
		}
	}
	return validateStruct(op, dst)
}

func validateStruct(op string, v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid(op, err.Error())
	}

	var out error
	for _, fe := range verrs {
		out = domain.AddFieldError(out, fieldPath(fe), fieldMessage(fe))
	}
	var ve *domain.ValidationError
	if errors.As(out, &ve) {
		ve.Op = op
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace, so
// "updateCartRequest.items[0].qty" becomes "items[0].qty".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// =============================================================================
// Query parameters
// =============================================================================

// Query reads typed query parameters and collects field errors.
type Query struct {
	values url.Values
	err    error
}

// NewQuery wraps the request's query string.
func NewQuery(r *http.Request) *Query {
	return &Query{values: r.URL.Query()}
}

func (q *Query) fail(name, msg string) {
	q.err = domain.AddFieldError(q.err, name, msg)
}

// String returns the trimmed parameter.
func (q *Query) String(name string) string {
	return strings.TrimSpace(q.values.Get(name))
}

// Int returns the parameter or def when absent.
func (q *Query) Int(name string, def int) int {
	s := q.String(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.fail(name, "must be an integer")
		return def
	}
	return n
}

// Float returns the parameter or def when absent.
func (q *Query) Float(name string, def float64) float64 {
	s := q.String(name)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.fail(name, "must be a number")
		return def
	}
	return f
}

// RequiredFloat returns the parameter, recording an error when absent.
func (q *Query) RequiredFloat(name string) float64 {
	if q.String(name) == "" {
		q.fail(name, "is required")
		return 0
	}
	return q.Float(name, 0)
}

// Bool returns nil when absent.
func (q *Query) Bool(name string) *bool {
	s := q.String(name)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.fail(name, "must be true or false")
		return nil
	}
	return &b
}

// Decimal returns nil when absent. Negative values are rejected.
func (q *Query) Decimal(name string) *decimal.Decimal {
	s := q.String(name)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		q.fail(name, "must be a non-negative number")
		return nil
	}
	return &d
}

// Page reads page and limit. Values are clamped later by the service;
// only non-numeric input is an error here.
func (q *Query) Page() domain.PageRequest {
	return domain.PageRequest{Page: q.Int("page", 1), Limit: q.Int("limit", 0)}
}

// Err returns the collected validation error, with op attached.
func (q *Query) Err(op string) error {
	var ve *domain.ValidationError
	if errors.As(q.err, &ve) {
		ve.Op = op
	}
	return q.err
}

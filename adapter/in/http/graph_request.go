package http

import (
	"bytes"
	"errors"
	"fmt"

	"graph_server/core/port/in"
	"graph_server/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

const maxQueryLength = 100_000

var validate = validator.New()

// QueryRequest is the body of the read and write endpoints.
type QueryRequest struct {
	Query      string         `json:"query" validate:"required,max=100000"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Database   string         `json:"database,omitempty" validate:"omitempty,max=63"`
}

// bind parses the JSON body into dst and validates it. Integral numbers in
// query parameters arrive as int64, the rest as float64.
func bind(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body").WithError(err)
	}

	switch req := dst.(type) {
	case *QueryRequest:
		req.Parameters = parameterNumbers(req.Parameters)
	case *in.RunQueryRequest:
		req.Parameters = parameterNumbers(req.Parameters)
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.BadRequest(err.Error())
	}
	fe := verrs[0]

	if fe.Field() == "Query" {
		switch fe.Tag() {
		case "required":
			return apperr.InvalidQuery("query cannot be empty")
		case "max":
			return apperr.InvalidQuery(fmt.Sprintf("query exceeds %d characters", maxQueryLength))
		}
	}
	return apperr.BadRequest(fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag())).
		WithDetail("field", fe.Field())
}

func parameterNumbers(params map[string]any) map[string]any {
	for k, v := range params {
		params[k] = numberValue(v)
	}
	return params
}

// numberValue resolves json.Number recursively. Cypher rejects floats where
// it expects integers (LIMIT, SKIP, range bounds).
func numberValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		return parameterNumbers(x)
	case []any:
		for i := range x {
			x[i] = numberValue(x[i])
		}
		return x
	default:
		return v
	}
}

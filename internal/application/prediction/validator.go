package prediction

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation error types
const (
	TypeJSONInvalid = "json_invalid"
	TypeDictType    = "dict_type"
	TypeMissing     = "missing"
	TypeListType    = "list_type"
	TypeFloatType   = "float_type"
	TypeValueError  = "value_error"
)

const inputsField = "inputs"

// Request is a validated prediction request
type Request struct {
	Inputs []float64 `json:"inputs" validate:"required,min=1"`
}

// Validator validates prediction request bodies
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new request validator
func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate decodes a raw JSON body into a Request.
// It returns a *ValidationError listing every violated constraint.
func (v *Validator) Validate(data []byte) (*Request, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, rejectBody(TypeDictType, "Input should be a valid dictionary")
		}
		return nil, rejectBody(TypeJSONInvalid, "JSON decode error")
	}
	if body == nil {
		return nil, rejectBody(TypeDictType, "Input should be a valid dictionary")
	}

	raw, ok := body[inputsField]
	if !ok {
		return nil, rejectInputs(TypeMissing, "Field required")
	}

	// Unmarshalling null leaves elems nil without an error
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil, rejectInputs(TypeListType, "Input should be a valid list")
	}

	req := &Request{Inputs: make([]float64, 0, len(elems))}
	var details []FieldError
	for i, elem := range elems {
		f, ok := parseNumber(elem)
		if !ok {
			details = append(details, FieldError{
				Loc:  []interface{}{"body", inputsField, i},
				Msg:  "Input should be a valid number",
				Type: TypeFloatType,
			})
			continue
		}
		req.Inputs = append(req.Inputs, f)
	}
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	if err := v.validate.Struct(req); err != nil {
		return nil, fromValidatorErrors(err)
	}

	return req, nil
}

// parseNumber accepts JSON numbers, booleans (as 0 or 1) and strings
// holding a finite decimal float, matching lax float coercion.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	switch c := raw[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, false
		}
		return f, true

	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true

	case c == '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		return parseFloatString(str)

	default:
		return 0, false
	}
}

// parseFloatString parses a trimmed decimal float. Hex literals and
// non-finite values (inf, nan, overflow) are rejected.
func parseFloatString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// fromValidatorErrors converts struct tag violations to field errors
func fromValidatorErrors(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Details: []FieldError{{
			Loc:  []interface{}{"body"},
			Msg:  err.Error(),
			Type: TypeValueError,
		}}}
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "Value error, " + fe.Error()
		if fe.Field() == inputsField && (fe.Tag() == "min" || fe.Tag() == "required") {
			msg = "Value error, Inputs cannot be an empty list."
		}
		details = append(details, FieldError{
			Loc:  []interface{}{"body", fe.Field()},
			Msg:  msg,
			Type: TypeValueError,
		})
	}
	return &ValidationError{Details: details}
}

func rejectBody(typ, msg string) *ValidationError {
	return &ValidationError{Details: []FieldError{{
		Loc:  []interface{}{"body"},
		Msg:  msg,
		Type: typ,
	}}}
}

func rejectInputs(typ, msg string) *ValidationError {
	return &ValidationError{Details: []FieldError{{
		Loc:  []interface{}{"body", inputsField},
		Msg:  msg,
		Type: typ,
	}}}
}

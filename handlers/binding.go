package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// payload holds the raw top-level values of a JSON object body
type payload map[string]json.RawMessage

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p payload) keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

type bindOptions struct {
	// Partial validates only the fields that were sent (PATCH).
	Partial bool
	// Strict rejects keys that dst does not declare.
	Strict bool
}

// bindJSON decodes the body into dst one field at a time so every bad field is
// reported, then runs the binding rules. On failure it writes the 400 response
// and returns false.
func bindJSON(c *gin.Context, dst any, opts bindOptions) (payload, bool) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read request body.")
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var data payload
	if err := json.Unmarshal(body, &data); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			respondInvalid(c, FieldErrors{"non_field_errors": {
				fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeErr.Value),
			}})
			return nil, false
		}
		respondError(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return nil, false
	}

	errs := FieldErrors{}
	target := reflect.ValueOf(dst).Elem()
	fields := jsonFields(target.Type())
	var present []string
	for key, raw := range data {
		name, ok := fields[key]
		if !ok {
			if opts.Strict {
				errs.Add(key, "Unexpected field.")
			}
			continue
		}
		field := target.FieldByName(name)
		if err := json.Unmarshal(raw, field.Addr().Interface()); err != nil {
			errs.Add(key, decodeMessage(err))
			continue
		}
		present = append(present, name)
	}

	if opts.Partial {
		err = validate.StructPartial(dst, present...)
	} else {
		err = validate.Struct(dst)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, seen := errs[fe.Field()]; !seen {
				errs.Add(fe.Field(), validationMessage(fe))
			}
		}
	} else if err != nil {
		respondServerError(c, "validate request", err)
		return nil, false
	}

	if len(errs) > 0 {
		respondInvalid(c, errs)
		return nil, false
	}
	return data, true
}

// jsonFields maps the JSON names of a struct's exported fields to their Go names.
func jsonFields(t reflect.Type) map[string]string {
	fields := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		fields[name] = f.Name
	}
	return fields
}

func decodeMessage(err error) string {
	var moneyErr *models.MoneyError
	if errors.As(err, &moneyErr) {
		return moneyErr.Reason
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return kindMessage(typeErr.Type.Kind())
	}
	return "Invalid value."
}

func kindMessage(kind reflect.Kind) string {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.String:
		return "Not a valid string."
	}
	return "Invalid value."
}

func validationMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if isString && fe.Param() == "1" {
			return "This field may not be blank."
		}
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "slug":
		return `Enter a valid "slug" consisting of letters, numbers, underscores or hyphens.`
	}
	return "Invalid value."
}

// parseID reads a numeric path parameter. Anything else is a 404, like an unmatched route.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondNotFound(c)
		return 0, false
	}
	return uint(id), true
}

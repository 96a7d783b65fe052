package handlers

import (
	"reflect"
	"strconv"
	"strings"

	"restaurant-api/models"
)

type requestBody struct {
	Required bool                 `yaml:"required" json:"required"`
	Content  map[string]mediaType `yaml:"content" json:"content"`
}

type mediaType struct {
	Schema schemaObject `yaml:"schema" json:"schema"`
}

type schemaObject struct {
	Ref        string                  `yaml:"$ref,omitempty" json:"$ref,omitempty"`
	Type       string                  `yaml:"type,omitempty" json:"type,omitempty"`
	Format     string                  `yaml:"format,omitempty" json:"format,omitempty"`
	Pattern    string                  `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinLength  *int                    `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength  *int                    `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Minimum    *int                    `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum    *int                    `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	Properties map[string]schemaObject `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required   []string                `yaml:"required,omitempty" json:"required,omitempty"`
}

// bodySpec is the body a write operation binds. Partial payloads drop the
// required list, matching how bindJSON treats PATCH.
type bodySpec struct {
	body    any
	partial bool
}

var requestBodies = map[string]bodySpec{
	"POST /api/v1/restaurant/items":              {body: MenuItemRequest{}},
	"PUT /api/v1/restaurant/items/{id}":          {body: MenuItemRequest{}},
	"PATCH /api/v1/restaurant/items/{id}":        {body: MenuItemRequest{}, partial: true},
	"POST /api/v1/restaurant/categories":         {body: CategoryRequest{}},
	"PUT /api/v1/restaurant/categories/{slug}":   {body: CategoryRequest{}},
	"PATCH /api/v1/restaurant/categories/{slug}": {body: CategoryRequest{}, partial: true},
	"POST /api/v1/restaurant/cart":               {body: CartCreateRequest{}},
	"PUT /api/v1/restaurant/cart/{id}":           {body: CartUpdateRequest{}},
	"PATCH /api/v1/restaurant/cart/{id}":         {body: CartUpdateRequest{}},
	"PUT /api/v1/restaurant/orders/{id}":         {body: OrderUpdateRequest{}},
	"PATCH /api/v1/restaurant/orders/{id}":       {body: OrderUpdateRequest{}, partial: true},
	"POST /api/v1/users/groups/manager":          {body: UsernameRequest{}},
	"POST /api/v1/users/groups/delivery-crew":    {body: UsernameRequest{}},
	"POST /api/v1/auth/jwt/create":               {body: LoginRequest{}},
	"POST /api/v1/auth/jwt/refresh":              {body: RefreshRequest{}},
	"POST /api/v1/auth/jwt/verify":               {body: VerifyRequest{}},
	"POST /api/v1/auth/users":                    {body: RegisterRequest{}},
	"POST /api/v1/auth/demo-token/refresh":       {body: RefreshRequest{}},
	"POST /api/v1/auth/demo-logout":              {body: RefreshRequest{}},
}

var moneyType = reflect.TypeOf(models.Money(0))

// schemaName is the component name of a body, "Patched" prefixed when partial
func (p bodySpec) schemaName() string {
	name := reflect.TypeOf(p.body).Name()
	if p.partial {
		return "Patched" + name
	}
	return name
}

// schema describes the body from its json and binding tags.
func (p bodySpec) schema() schemaObject {
	t := reflect.TypeOf(p.body)
	obj := schemaObject{Type: "object", Properties: map[string]schemaObject{}}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		prop := typeSchema(f.Type)
		for _, rule := range strings.Split(f.Tag.Get("binding"), ",") {
			key, val, _ := strings.Cut(rule, "=")
			switch key {
			case "required":
				if !p.partial {
					obj.Required = append(obj.Required, name)
				}
			case "min", "max":
				if n, err := strconv.Atoi(val); err == nil {
					prop.bound(key, n)
				}
			case "email":
				prop.Format = "email"
			case "slug":
				prop.Pattern = slugPattern.String()
			}
		}
		obj.Properties[name] = prop
	}
	return obj
}

func typeSchema(t reflect.Type) schemaObject {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == moneyType {
		return schemaObject{Type: "string", Format: "decimal", Pattern: `^-?\d{0,4}(?:\.\d{0,2})?$`}
	}
	switch t.Kind() {
	case reflect.Bool:
		return schemaObject{Type: "boolean"}
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return schemaObject{Type: "integer"}
	default:
		return schemaObject{Type: "string"}
	}
}

// bound applies a min or max rule as a length for strings and a value otherwise
func (s *schemaObject) bound(rule string, n int) {
	switch {
	case s.Type == "string" && rule == "min":
		s.MinLength = &n
	case s.Type == "string":
		s.MaxLength = &n
	case rule == "min":
		s.Minimum = &n
	default:
		s.Maximum = &n
	}
}

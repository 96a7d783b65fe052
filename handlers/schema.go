package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	OpenAPI    string                          `yaml:"openapi" json:"openapi"`
	Info       openAPIInfo                     `yaml:"info" json:"info"`
	Paths      map[string]map[string]operation `yaml:"paths" json:"paths"`
	Components components                      `yaml:"components" json:"components"`
}

type openAPIInfo struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

type operation struct {
	OperationID string                `yaml:"operationId" json:"operationId"`
	Summary     string                `yaml:"summary,omitempty" json:"summary,omitempty"`
	Tags        []string              `yaml:"tags" json:"tags"`
	Parameters  []parameter           `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *requestBody          `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]response   `yaml:"responses" json:"responses"`
	Security    []map[string][]string `yaml:"security,omitempty" json:"security,omitempty"`
}

type parameter struct {
	Name     string            `yaml:"name" json:"name"`
	In       string            `yaml:"in" json:"in"`
	Required bool              `yaml:"required" json:"required"`
	Schema   map[string]string `yaml:"schema" json:"schema"`
}

type response struct {
	Description string `yaml:"description" json:"description"`
}

type components struct {
	Schemas         map[string]schemaObject   `yaml:"schemas,omitempty" json:"schemas,omitempty"`
	SecuritySchemes map[string]securityScheme `yaml:"securitySchemes" json:"securitySchemes"`
}

type securityScheme struct {
	Type         string `yaml:"type" json:"type"`
	Scheme       string `yaml:"scheme" json:"scheme"`
	BearerFormat string `yaml:"bearerFormat" json:"bearerFormat"`
}

// publicOperations need no bearer token
var publicOperations = map[string]bool{
	"POST /api/v1/auth/jwt/create":         true,
	"POST /api/v1/auth/jwt/refresh":        true,
	"POST /api/v1/auth/jwt/verify":         true,
	"POST /api/v1/auth/users":              true,
	"POST /api/v1/auth/demo-login/{role}":  true,
	"POST /api/v1/auth/demo-token/refresh": true,
	"GET /api/schema":                      true,
}

var operationSummaries = map[string]string{
	"GET /api/v1/restaurant/items":                   "List menu items",
	"POST /api/v1/restaurant/items":                  "Create a menu item",
	"GET /api/v1/restaurant/items/{id}":              "Retrieve a menu item",
	"PUT /api/v1/restaurant/items/{id}":              "Update a menu item",
	"PATCH /api/v1/restaurant/items/{id}":            "Partially update a menu item",
	"DELETE /api/v1/restaurant/items/{id}":           "Delete a menu item",
	"GET /api/v1/restaurant/categories":              "List menu categories",
	"POST /api/v1/restaurant/categories":             "Create a menu category",
	"GET /api/v1/restaurant/categories/{slug}":       "Retrieve a menu category",
	"PUT /api/v1/restaurant/categories/{slug}":       "Update a menu category",
	"PATCH /api/v1/restaurant/categories/{slug}":     "Partially update a menu category",
	"DELETE /api/v1/restaurant/categories/{slug}":    "Delete a menu category",
	"GET /api/v1/restaurant/cart":                    "List the items in your cart",
	"POST /api/v1/restaurant/cart":                   "Add an item to your cart",
	"DELETE /api/v1/restaurant/cart/clear":           "Clear your cart",
	"GET /api/v1/restaurant/cart/{id}":               "Retrieve a cart item",
	"PUT /api/v1/restaurant/cart/{id}":               "Update a cart item quantity",
	"PATCH /api/v1/restaurant/cart/{id}":             "Update a cart item quantity",
	"DELETE /api/v1/restaurant/cart/{id}":            "Remove an item from your cart",
	"GET /api/v1/restaurant/orders":                  "List orders",
	"POST /api/v1/restaurant/orders":                 "Place an order from your cart",
	"GET /api/v1/restaurant/orders/{id}":             "Retrieve an order",
	"PUT /api/v1/restaurant/orders/{id}":             "Update an order",
	"PATCH /api/v1/restaurant/orders/{id}":           "Partially update an order",
	"DELETE /api/v1/restaurant/orders/{id}":          "Delete an order",
	"GET /api/v1/users/groups/manager":               "List managers",
	"POST /api/v1/users/groups/manager":              "Add a user to the Manager group",
	"GET /api/v1/users/groups/manager/{id}":          "Retrieve a manager",
	"DELETE /api/v1/users/groups/manager/{id}":       "Remove a user from the Manager group",
	"GET /api/v1/users/groups/delivery-crew":         "List delivery crew members",
	"POST /api/v1/users/groups/delivery-crew":        "Add a user to the Delivery crew group",
	"GET /api/v1/users/groups/delivery-crew/{id}":    "Retrieve a delivery crew member",
	"DELETE /api/v1/users/groups/delivery-crew/{id}": "Remove a user from the Delivery crew group",
	"GET /api/v1/users/groups/customer":              "List customers",
	"POST /api/v1/auth/jwt/create":                   "Authenticate a user and issue tokens.",
	"POST /api/v1/auth/jwt/refresh":                  "Refresh the access token for a user.",
	"POST /api/v1/auth/jwt/verify":                   "Verify a token.",
	"GET /api/v1/auth/users/me":                      "Retrieve the authenticated user",
	"POST /api/v1/auth/users":                        "Register a customer account",
	"POST /api/v1/auth/demo-login/{role}":            "Create a temporary demo user",
	"GET /api/v1/auth/demo-me":                       "Describe the current demo user",
	"POST /api/v1/auth/demo-token/refresh":           "Refresh tokens for an active demo user",
	"POST /api/v1/auth/demo-logout":                  "Log out a demo user",
	"GET /api/schema":                                "OpenAPI schema",
}

// BuildSchema describes every /api route as an OpenAPI 3 document
func BuildSchema(routes gin.RoutesInfo, version string) openAPIDoc {
	doc := openAPIDoc{
		OpenAPI: "3.0.3",
		Info: openAPIInfo{
			Title:       "Restaurant API",
			Version:     version,
			Description: "Menu, cart and order management with role-based access.",
		},
		Paths: map[string]map[string]operation{},
		Components: components{
			Schemas: map[string]schemaObject{},
			SecuritySchemes: map[string]securityScheme{
				"jwtAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
	}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/api/") || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			continue
		}
		path, params := openAPIPath(r.Path)
		key := r.Method + " " + path

		op := operation{
			OperationID: operationID(r.Method, path),
			Summary:     operationSummaries[key],
			Tags:        []string{pathTag(path)},
			Parameters:  params,
			Responses:   map[string]response{successStatus(r.Method, path): {Description: "Success"}},
		}
		if p, ok := requestBodies[key]; ok {
			name := p.schemaName()
			doc.Components.Schemas[name] = p.schema()
			op.RequestBody = &requestBody{
				Required: !p.partial,
				Content: map[string]mediaType{
					"application/json": {Schema: schemaObject{Ref: "#/components/schemas/" + name}},
				},
			}
		}
		if !publicOperations[key] {
			op.Security = []map[string][]string{{"jwtAuth": {}}}
		}
		if doc.Paths[path] == nil {
			doc.Paths[path] = map[string]operation{}
		}
		doc.Paths[path][strings.ToLower(r.Method)] = op
	}
	return doc
}

// openAPIPath turns "/items/:id" into "/items/{id}" and returns the path parameters
func openAPIPath(ginPath string) (string, []parameter) {
	segments := strings.Split(ginPath, "/")
	var params []parameter
	for i, seg := range segments {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			segments[i] = "{" + name + "}"
			params = append(params, parameter{Name: name, In: "path", Required: true, Schema: map[string]string{"type": "string"}})
		}
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return strings.Join(segments, "/"), params
}

func operationID(method, path string) string {
	replacer := strings.NewReplacer("/", "_", "{", "", "}", "", "-", "_")
	return strings.ToLower(method) + strings.TrimSuffix(replacer.Replace(strings.TrimPrefix(path, "/api")), "_")
}

func pathTag(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	if len(parts) > 1 && parts[0] == "v1" {
		return parts[1]
	}
	return parts[0]
}

func successStatus(method, path string) string {
	if method == http.MethodPost && !strings.Contains(path, "/jwt/") && !strings.HasSuffix(path, "/demo-logout") &&
		!strings.HasSuffix(path, "/demo-token/refresh") {
		return "201"
	}
	return "200"
}

// Schema serves the OpenAPI document as YAML, or as JSON with ?format=json.
func Schema(routes func() gin.RoutesInfo, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc := BuildSchema(routes(), version)
		if c.Query("format") == "json" {
			c.JSON(http.StatusOK, doc)
			return
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			respondServerError(c, "render schema", err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.oai.openapi; charset=utf-8", out)
	}
}

// Package openapi generates the OpenAPI 3.1 document served at /openapi.json.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// GenerateSpec builds the OpenAPI document for the gatehouse admin API.
func GenerateSpec(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Gatehouse Admin API",
			Description: "Admin session lifecycle and access control for the content console.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						},
					},
				},
			},
		},
	}

	doc.Components.Schemas["Admin"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":               stringSchema(),
				"email":            stringSchema(),
				"role":             &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: []interface{}{"admin", "superadmin"}}},
				"active":           &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"display_name":     stringSchema(),
				"created_at":       &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
				"created_by_email": stringSchema(),
				"static":           &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			},
		},
	}

	doc.Paths = openapi3.NewPaths()

	doc.Paths.Set("/api/v1/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "login",
			Summary:     "Authenticate and obtain a bearer token",
			Tags:        []string{"session"},
			RequestBody: jsonBody(&openapi3.Schema{
				Type:     &openapi3.Types{"object"},
				Required: []string{"email", "password"},
				Properties: openapi3.Schemas{
					"email":    stringSchema(),
					"password": stringSchema(),
				},
			}),
			Responses: newResponses("200", "Session token issued", objectSchemaRef()),
		},
		Delete: &openapi3.Operation{
			OperationID: "logout",
			Summary:     "Invalidate the current session",
			Tags:        []string{"session"},
			Responses:   newResponses("200", "Session invalidated", objectSchemaRef()),
		},
	})

	doc.Paths.Set("/api/v1/auth/probe", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "authProbe",
			Summary:     "Confirm the bearer token still maps to an authorized administrator",
			Tags:        []string{"session"},
			Security:    bearerSecurity(),
			Responses:   newResponses("200", "Authorized", objectSchemaRef()),
		},
	})

	doc.Paths.Set("/api/v1/admin", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listAdmins",
			Summary:     "List the merged administrator registry",
			Tags:        []string{"admin"},
			Security:    bearerSecurity(),
			Responses: newResponses("200", "Merged registry",
				openapi3.NewSchemaRef("#/components/schemas/Admin", nil)),
		},
		Post: &openapi3.Operation{
			OperationID: "createAdmin",
			Summary:     "Create a new administrator (superadmin only)",
			Tags:        []string{"admin"},
			Security:    bearerSecurity(),
			RequestBody: jsonBody(&openapi3.Schema{
				Type:     &openapi3.Types{"object"},
				Required: []string{"email", "password"},
				Properties: openapi3.Schemas{
					"email":        stringSchema(),
					"password":     stringSchema(),
					"role":         stringSchema(),
					"display_name": stringSchema(),
				},
			}),
			Responses: newResponses("201", "Administrator created", objectSchemaRef()),
		},
	})

	return doc
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func objectSchemaRef() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func bearerSecurity() *openapi3.SecurityRequirements {
	reqs := openapi3.NewSecurityRequirements()
	reqs.With(openapi3.SecurityRequirement{"bearerAuth": {}})
	return reqs
}

func jsonBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchema(schema),
		},
	}
}

func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)

	badReqDesc := "Bad request"
	responses.Set("400", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &badReqDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	unauthDesc := "Unauthorized"
	responses.Set("401", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &unauthDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	forbiddenDesc := "Forbidden"
	responses.Set("403", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &forbiddenDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	return responses
}

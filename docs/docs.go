// Package docs is generated by swaggo/swag. Regenerate with:
//
//	swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/auth/register/": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Register a new user",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					}
				}
			}
		},
		"/api/auth/login/": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Login",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/auth/me/": {
			"get": {
				"tags": [
					"auth"
				],
				"summary": "Current user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users/pending-approvals/": {
			"get": {
				"tags": [
					"users"
				],
				"summary": "Vet accounts awaiting approval",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users/{id}/approve/": {
			"post": {
				"tags": [
					"users"
				],
				"summary": "Approve an account",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/vets/me/availability/": {
			"patch": {
				"tags": [
					"users"
				],
				"summary": "Toggle vet availability",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/livestock/": {
			"post": {
				"tags": [
					"livestock"
				],
				"summary": "Register an animal",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"livestock"
				],
				"summary": "List visible animals",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/livestock/{id}/": {
			"get": {
				"tags": [
					"livestock"
				],
				"summary": "Retrieve an animal",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"patch": {
				"tags": [
					"livestock"
				],
				"summary": "Update an animal",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"delete": {
				"tags": [
					"livestock"
				],
				"summary": "Remove an animal",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "No Content"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/cases/reports/": {
			"post": {
				"tags": [
					"cases"
				],
				"summary": "Report a sick animal",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"cases"
				],
				"summary": "List visible case reports",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/cases/reports/available_vets_by_location/": {
			"get": {
				"tags": [
					"cases"
				],
				"summary": "Available local vets by location",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/cases/reports/{id}/": {
			"get": {
				"tags": [
					"cases"
				],
				"summary": "Retrieve a case report",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"patch": {
				"tags": [
					"cases"
				],
				"summary": "Partially update a case report",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"cases"
				],
				"summary": "Update a case report",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"delete": {
				"tags": [
					"cases"
				],
				"summary": "Delete a case report",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "No Content"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/cases/reports/{id}/assign/": {
			"post": {
				"tags": [
					"cases"
				],
				"summary": "Assign a case to a local vet",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/cases/reports/{id}/unassign/": {
			"post": {
				"tags": [
					"cases"
				],
				"summary": "Remove the vet assignment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/cases/reports/{id}/history/": {
			"get": {
				"tags": [
					"cases"
				],
				"summary": "Case audit trail",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/notifications/": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "List my notifications",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/notifications/unread-count/": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "Count unread notifications",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/notifications/read-all/": {
			"post": {
				"tags": [
					"notifications"
				],
				"summary": "Mark every notification read",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/notifications/{id}/read/": {
			"post": {
				"tags": [
					"notifications"
				],
				"summary": "Mark a notification read",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "No Content"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/ussd/": {
			"post": {
				"tags": [
					"ussd"
				],
				"summary": "USSD gateway callback",
				"produces": [
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/health": {
			"get": {
				"tags": [
					"health"
				],
				"summary": "Liveness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/health/ready": {
			"get": {
				"tags": [
					"health"
				],
				"summary": "Readiness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "",
	BasePath:		 "/",
	Schemes:		  []string{},
	Title:			"AnimalGuardian API",
	Description:	  "Livestock case reporting, veterinarian assignment and notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

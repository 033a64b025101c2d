// Package docs holds the OpenAPI document for the machine API, registered
// with swag so http-swagger can serve it. It is maintained by hand alongside
// the handler annotations in internal/http.
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
        "/api/token": {
            "post": {
                "description": "Exchange a username and password for a signed bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Obtain an API token",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/meetingrooms": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "List meeting rooms",
                "parameters": [
                    {"type": "string", "description": "Search name or location", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.roomDTO"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Administrators only. Capacity defaults to 10.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Create a meeting room",
                "parameters": [
                    {"description": "Room", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.roomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.roomDTO"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/meetingrooms/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Get a meeting room",
                "parameters": [
                    {"type": "integer", "description": "Room id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.roomDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Administrators only.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Update a meeting room",
                "parameters": [
                    {"type": "integer", "description": "Room id", "name": "id", "in": "path", "required": true},
                    {"description": "Room", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.roomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.roomDTO"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Administrators only. Deleting a room deletes its bookings.",
                "tags": ["rooms"],
                "summary": "Delete a meeting room",
                "parameters": [
                    {"type": "integer", "description": "Room id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/meetings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Every meeting, newest first, with the same filters as the meetings pages.",
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "List meetings",
                "parameters": [
                    {"type": "string", "description": "Search title, description, room or organizer", "name": "q", "in": "query"},
                    {"type": "string", "description": "upcoming, ongoing, ended or all", "name": "status", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, inclusive", "name": "date_from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, inclusive", "name": "date_to", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, positive integer, default 10", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.bookingPageDTO"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "The caller becomes the organizer. Times are RFC 3339 instants or wall clock values in the display zone.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "Book a meeting room",
                "parameters": [
                    {"description": "Meeting", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/application.BookingInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.bookingDTO"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/meetings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "Get a meeting",
                "parameters": [
                    {"type": "integer", "description": "Meeting id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.bookingDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Organizer or administrator only; other callers get 404.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "Update a meeting",
                "parameters": [
                    {"type": "integer", "description": "Meeting id", "name": "id", "in": "path", "required": true},
                    {"description": "Meeting", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/application.BookingInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.bookingDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Organizer or administrator only; other callers get 404.",
                "tags": ["meetings"],
                "summary": "Delete a meeting",
                "parameters": [
                    {"type": "integer", "description": "Meeting id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "application.BookingInput": {
            "type": "object",
            "required": ["end_time", "room", "start_time", "title"],
            "properties": {
                "description": {"type": "string"},
                "end_time": {"type": "string"},
                "room": {"type": "string"},
                "start_time": {"type": "string"},
                "title": {"type": "string", "maxLength": 200}
            }
        },
        "http.attachmentDTO": {
            "type": "object",
            "properties": {
                "content_type": {"type": "string"},
                "file_name": {"type": "string"},
                "size": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "http.bookingDTO": {
            "type": "object",
            "properties": {
                "can_edit": {"type": "boolean"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "end_time": {"type": "string"},
                "id": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "minutes": {"$ref": "#/definitions/http.attachmentDTO"},
                "organizer": {"$ref": "#/definitions/http.organizerDTO"},
                "room": {"$ref": "#/definitions/http.roomRefDTO"},
                "start_time": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "http.bookingPageDTO": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "filters": {"$ref": "#/definitions/http.filtersDTO"},
                "has_next": {"type": "boolean"},
                "has_previous": {"type": "boolean"},
                "now": {"type": "string"},
                "page": {"type": "integer"},
                "page_count": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/http.bookingDTO"}},
                "time_zone": {"type": "string"}
            }
        },
        "http.conflictDTO": {
            "type": "object",
            "properties": {
                "booking_id": {"type": "integer"},
                "end_time": {"type": "string"},
                "room": {"type": "string"},
                "start_time": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "http.errorResponse": {
            "type": "object",
            "properties": {
                "conflict": {"$ref": "#/definitions/http.conflictDTO"},
                "error_code": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}},
                "input": {},
                "message": {"type": "string"}
            }
        },
        "http.filtersDTO": {
            "type": "object",
            "properties": {
                "date_from": {"type": "string"},
                "date_to": {"type": "string"},
                "per_page": {"type": "integer"},
                "q": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "http.loginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "http.organizerDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "http.roomDTO": {
            "type": "object",
            "properties": {
                "capacity": {"type": "integer"},
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "location": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "http.roomRefDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "http.roomRequest": {
            "type": "object",
            "properties": {
                "capacity": {"type": "integer"},
                "location": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "http.tokenResponse": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "expires_at": {"type": "string"},
                "token_type": {"type": "string"}
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
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Meeting Rooms API",
	Description:      "Machine API for booking meeting rooms. Authenticate with POST /api/token and send the token as `Bearer <token>`.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

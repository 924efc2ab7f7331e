// Package apidocs registers the OpenAPI description of the HTTP API with
// swag so http-swagger can serve it.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "debounced maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/submit": {
            "post": {
                "summary": "Submit a payload for a key",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.SubmitRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.SubmitResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/trigger/{key}": {
            "post": {
                "summary": "Emit a key now, overriding its remaining wait",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "key", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TriggerResponse"}}
                }
            }
        },
        "/flush": {
            "post": {
                "summary": "Emit every key once and drop all state",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FlushResponse"}}
                }
            }
        },
        "/clear": {
            "post": {
                "summary": "Drop all state without emitting",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ClearResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "summary": "Pending keys and server info",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "summary": "Stream emissions as NDJSON",
                "produces": ["application/x-ndjson"],
                "parameters": [
                    {"in": "query", "name": "key", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "One types.EmissionEvent per line", "schema": {"$ref": "#/definitions/types.EmissionEvent"}}
                }
            }
        },
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "not ready"}}}}
    },
    "definitions": {
        "types.SubmitRequest": {
            "type": "object",
            "required": ["key"],
            "properties": {
                "key": {"type": "string", "example": "user:42:profile"},
                "wait_ms": {"type": "integer", "example": 500},
                "payload": {"type": "object"}
            }
        },
        "types.SubmitResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "pending": {"type": "integer"}
            }
        },
        "types.TriggerResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "triggered": {"type": "boolean"}
            }
        },
        "types.FlushResponse": {
            "type": "object",
            "properties": {"flushed": {"type": "integer"}}
        },
        "types.ClearResponse": {
            "type": "object",
            "properties": {"cleared": {"type": "integer"}}
        },
        "types.PendingKey": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "scheduled": {"type": "boolean"},
                "due_in_ms": {"type": "integer"},
                "last_emit_ms": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "pending": {"type": "array", "items": {"$ref": "#/definitions/types.PendingKey"}},
                "default_wait_ms": {"type": "integer"},
                "stream_clients": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.EmissionEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "key": {"type": "string"},
                "payload": {"type": "object"},
                "reason": {"type": "string", "enum": ["immediate", "timer", "trigger", "flush"]},
                "emitted_at_ms": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "debounced API",
	Description:      "HTTP API for the per-key event debouncer.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

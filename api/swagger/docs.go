// Package swagger registers the OpenAPI document served at /swagger.
package swagger

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
        "/api/research/tasks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["research"], "summary": "List visible research tasks", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/research/tasks/{id}/claim": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["research"], "summary": "Claim a research task", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/research/tasks/{id}/submit": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["research"], "summary": "Submit research", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SubmitResearchRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/inquiry/tasks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inquiry"], "summary": "List visible inquiry tasks", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/inquiry/tasks/{id}/claim": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["inquiry"], "summary": "Claim an inquiry task", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/inquiry/tasks/{id}/next-action": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inquiry"], "summary": "Next allowed step", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/inquiry/tasks/{id}/skip": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["inquiry"], "summary": "Skip an optional step", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SkipStepRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/inquiry/submit": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["inquiry"], "summary": "Submit an inquiry step", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SubmitStepRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/audit/research/{id}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Audit a research task", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.DecisionRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/audit/inquiry/{id}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Audit an inquiry task", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.DecisionRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/evidence": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["evidence"], "summary": "Fetch screenshot evidence", "produces": ["application/octet-stream"],
                "parameters": [{"type": "string", "name": "key", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["evidence"], "summary": "Upload screenshot evidence", "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}, {"type": "string", "name": "category_id", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/admin/research/tasks": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Bulk create research tasks", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.BulkCreateTasksRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/admin/inquiry/tasks": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create a standalone inquiry task", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreateTaskRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/admin/statistics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Pipeline statistics for a category", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "category_id", "in": "query", "required": true}, {"type": "string", "name": "start_date", "in": "query"}, {"type": "string", "name": "end_date", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "400": {"description": "Invalid date format", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/admin/activity": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List workflow activity", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}, {"type": "string", "name": "user_id", "in": "query"}, {"type": "string", "name": "entity_id", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/api/admin/categories/{id}/rules/invalidate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Drop cached category rules", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "definitions": {
        "response.Response": {"type": "object", "properties": {
            "status": {"type": "string"}, "status_code": {"type": "integer"}, "code": {"type": "string"},
            "data": {}, "meta": {"type": "object"}, "error": {"type": "string"}}},
        "service.SubmitResearchRequest": {"type": "object", "required": ["contact_name"], "properties": {
            "contact_name": {"type": "string"}, "profile_url": {"type": "string"}, "domain": {"type": "string"},
            "country": {"type": "string"}, "language": {"type": "string"}, "notes": {"type": "string"},
            "screenshot_path": {"type": "string"}, "screenshot_hash": {"type": "string"}}},
        "service.SubmitStepRequest": {"type": "object", "required": ["inquiry_task_id", "action_type"], "properties": {
            "inquiry_task_id": {"type": "string"}, "action_type": {"type": "string", "enum": ["OUTREACH", "ASK_FOR_EMAIL", "SEND_CATALOGUE"]},
            "screenshot_path": {"type": "string"}, "screenshot_hash": {"type": "string"}, "message_content": {"type": "string"},
            "email_provided": {"type": "boolean"}, "email_value": {"type": "string"}}},
        "service.SkipStepRequest": {"type": "object", "required": ["action_type"], "properties": {"action_type": {"type": "string"}}},
        "service.DecisionRequest": {"type": "object", "required": ["decision"], "properties": {
            "decision": {"type": "string", "enum": ["APPROVED", "REJECTED", "FLAGGED"]}, "reason_id": {"type": "string"}, "notes": {"type": "string"}}},
        "service.CreateTaskRequest": {"type": "object", "required": ["target_id", "category_id"], "properties": {
            "target_id": {"type": "string"}, "category_id": {"type": "string"}}},
        "service.BulkCreateTasksRequest": {"type": "object", "required": ["category_id", "target_ids"], "properties": {
            "category_id": {"type": "string"}, "target_ids": {"type": "array", "items": {"type": "string"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Leadflow Task Workflow API",
	Description:      "Research, inquiry and audit workflow for the lead-generation pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Bus Console API",
        "description": "Backend for the admin and operator bus scheduling consoles",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Schedule management, fare quotes and emergency cancellation"},
        {"name": "Catalog", "description": "Routes, buses and drivers"},
        {"name": "Tariffs", "description": "Per-kilometre tariff rates"},
        {"name": "Requests", "description": "In-flight request control"},
        {"name": "System", "description": "Console metrics and audit trail"}
    ],
    "paths": {
        "/{role}/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules",
                "parameters": [
                    {"name": "role", "in": "path", "required": true, "type": "string", "enum": ["admin", "operator"]},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "driver", "in": "query", "type": "string"},
                    {"name": "bus", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create schedule",
                "parameters": [
                    {"name": "role", "in": "path", "required": true, "type": "string", "enum": ["admin", "operator"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Driver or bus double booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/{role}/schedules/{id}": {
            "put": {
                "tags": ["Schedules"],
                "summary": "Update schedule",
                "parameters": [
                    {"name": "role", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete schedule",
                "parameters": [
                    {"name": "role", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/{role}/schedules/quote": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Compute fare ceiling and arrival estimate",
                "parameters": [{"name": "role", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/{role}/schedules/{id}/emergency-cancel": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Cancel a schedule and refund its bookings",
                "parameters": [
                    {"name": "role", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/{role}/tariff-rates/current": {
            "get": {
                "tags": ["Tariffs"],
                "summary": "Rates applied to each bus category",
                "parameters": [{"name": "role", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/{role}/requests/cancel": {
            "post": {
                "tags": ["Requests"],
                "summary": "Cancel the caller's in-flight requests",
                "parameters": [{"name": "role", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/audit-logs": {
            "get": {
                "tags": ["System"],
                "summary": "List console audit entries",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "ScheduleRequest": {
            "type": "object",
            "required": ["route_id", "bus_number", "driver_name", "departure_date", "departure_time", "fare"],
            "properties": {
                "route_id": {"type": "string"},
                "bus_number": {"type": "string"},
                "driver_name": {"type": "string"},
                "departure_date": {"type": "string", "format": "date"},
                "departure_time": {"type": "string"},
                "fare": {"type": "number"},
                "total_seats": {"type": "integer"},
                "booked_seats": {"type": "integer"},
                "status": {"type": "string"},
                "discount_reason": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

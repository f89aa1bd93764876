package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIIAU Planner API",
        "description": "Course offering lookup, conflict detection and saved schedules for the SIIAU portal",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "SIIAU", "description": "Portal form data and course offering"},
        {"name": "Conflicts", "description": "Overlapping session detection"},
        {"name": "Schedules", "description": "Saved schedules"},
        {"name": "Exports", "description": "CSV and PDF schedule exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}
            }
        },
        "/api/v1/siiau/form-options": {
            "get": {
                "tags": ["SIIAU"],
                "summary": "List cycles and campuses offered by the portal form",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Portal page changed shape", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Portal unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/siiau/majors": {
            "get": {
                "tags": ["SIIAU"],
                "summary": "List majors offered at a campus",
                "parameters": [
                    {"name": "cup", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing campus", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/siiau/offerings/query": {
            "post": {
                "tags": ["SIIAU"],
                "summary": "Query the course offering",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OfferingQueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No sections matched", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Portal page changed shape", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Portal unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/conflicts/check": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Detect overlapping sessions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List saved schedules",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Save a schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a saved schedule with its conflicts",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Rename a schedule or replace its data",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a schedule and its exports",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/schedules/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a saved schedule as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "OfferingQueryRequest": {
            "type": "object",
            "required": ["ciclop", "cup", "majrp"],
            "properties": {
                "ciclop": {"type": "string"},
                "cup": {"type": "string"},
                "majrp": {"type": "string"},
                "materiap": {"type": "string"},
                "crsep": {"type": "string"},
                "horaip": {"type": "string", "example": "0700"},
                "horafp": {"type": "string", "example": "1300"},
                "edifp": {"type": "string"},
                "aulap": {"type": "string"}
            }
        },
        "SessionRecord": {
            "type": "object",
            "properties": {
                "nrc": {"type": "string"},
                "clave": {"type": "string"},
                "materia": {"type": "string"},
                "seccion": {"type": "string"},
                "creditos": {"type": "string"},
                "cupos": {"type": "string"},
                "disponibles": {"type": "string"},
                "dia": {"type": "string", "x-nullable": true},
                "hora_inicio": {"type": "string", "x-nullable": true},
                "hora_fin": {"type": "string", "x-nullable": true},
                "edificio": {"type": "string", "x-nullable": true},
                "aula": {"type": "string", "x-nullable": true},
                "profesor": {"type": "string"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": ["records"],
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/SessionRecord"}},
                "selectedNrcs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SaveScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "data": {
                    "type": "object",
                    "properties": {
                        "selectedNrcs": {"type": "array", "items": {"type": "string"}},
                        "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionRecord"}},
                        "formParams": {"type": "object"},
                        "calendarLabel": {"type": "string"}
                    }
                }
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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

// Package docs は /swagger で配信する API 定義。ハンドラを増やしたらここも更新する。
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
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register an account (role user)",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "INVALID_ARGUMENT"}, "409": {"description": "CONFLICT"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Issue a bearer token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "UNAUTHENTICATED"}}
            }
        },
        "/authors": {
            "get": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "List authors", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Create an author", "responses": {"201": {"description": "Created"}}}
        },
        "/authors/{author_id}": {
            "get": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Get an author", "responses": {"200": {"description": "OK"}, "404": {"description": "AUTHOR_NOT_FOUND"}}},
            "put": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Update an author", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Delete an unreferenced author", "responses": {"204": {"description": "No Content"}, "409": {"description": "CONFLICT"}}}
        },
        "/books": {
            "get": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "List books", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Create a book", "responses": {"201": {"description": "Created"}, "409": {"description": "CONFLICT"}}}
        },
        "/books/{book_id}": {
            "get": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Get a book", "responses": {"200": {"description": "OK"}, "404": {"description": "BOOK_NOT_FOUND"}}},
            "put": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Update book metadata", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["catalog"], "security": [{"Bearer": []}], "summary": "Delete a book without loan history", "responses": {"204": {"description": "No Content"}, "409": {"description": "CONFLICT"}}}
        },
        "/books/{book_id}/copies": {
            "put": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Adjust total copies (librarian/admin)",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/lending.AdjustCopiesRequest"}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "BELOW_OPEN_LOAN_COUNT"}}
            }
        },
        "/books/{book_id}/availability": {
            "get": {"tags": ["lending"], "security": [{"Bearer": []}], "summary": "Check the availability invariant", "responses": {"200": {"description": "OK"}, "500": {"description": "INVARIANT_BREACH"}}}
        },
        "/books/{book_id}/loans": {
            "get": {"tags": ["lending"], "security": [{"Bearer": []}], "summary": "List loans of a book", "responses": {"200": {"description": "OK"}}}
        },
        "/members": {
            "get": {"tags": ["members"], "security": [{"Bearer": []}], "summary": "List members", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["members"], "security": [{"Bearer": []}], "summary": "Create a member", "responses": {"201": {"description": "Created"}}}
        },
        "/members/{member_id}": {
            "get": {"tags": ["members"], "security": [{"Bearer": []}], "summary": "Get a member", "responses": {"200": {"description": "OK"}, "404": {"description": "MEMBER_NOT_FOUND"}}},
            "put": {"tags": ["members"], "security": [{"Bearer": []}], "summary": "Update contact fields", "responses": {"200": {"description": "OK"}}}
        },
        "/members/{member_id}/deactivate": {
            "post": {
                "tags": ["members"], "security": [{"Bearer": []}],
                "summary": "Deactivate a member",
                "parameters": [{"in": "query", "name": "force", "type": "boolean"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "MEMBER_HAS_OPEN_LOANS"}}
            }
        },
        "/members/{member_id}/reactivate": {
            "post": {"tags": ["members"], "security": [{"Bearer": []}], "summary": "Reactivate a member", "responses": {"200": {"description": "OK"}}}
        },
        "/members/{member_id}/loans": {
            "get": {"tags": ["lending"], "security": [{"Bearer": []}], "summary": "List loans of a member", "responses": {"200": {"description": "OK"}}}
        },
        "/loans": {
            "get": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "List loans",
                "parameters": [
                    {"in": "query", "name": "book_id", "type": "string"},
                    {"in": "query", "name": "member_id", "type": "string"},
                    {"in": "query", "name": "open", "type": "boolean"},
                    {"in": "query", "name": "overdue", "type": "boolean"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"},
                    {"in": "query", "name": "order", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Issue a loan",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/lending.IssueLoanRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/lending.LoanResponse"}},
                    "404": {"description": "BOOK_NOT_FOUND / MEMBER_NOT_FOUND"},
                    "409": {"description": "MEMBER_INACTIVE / NO_COPY_AVAILABLE"},
                    "503": {"description": "STORE_UNAVAILABLE"}
                }
            }
        },
        "/loans/overdue": {
            "get": {"tags": ["lending"], "security": [{"Bearer": []}], "summary": "List overdue open loans", "responses": {"200": {"description": "OK"}}}
        },
        "/loans/export": {
            "get": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Export loans as CSV",
                "produces": ["text/csv"],
                "parameters": [{"in": "query", "name": "encoding", "type": "string", "enum": ["utf8", "sjis"]}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/loans/stats": {
            "get": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Rank books or members by loans issued in a date range",
                "parameters": [
                    {"in": "query", "name": "by", "type": "string", "enum": ["book", "member"]},
                    {"in": "query", "name": "from", "type": "string", "required": true},
                    {"in": "query", "name": "to", "type": "string", "required": true},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "INVALID_ARGUMENT"}}
            }
        },
        "/genres": {
            "get": {"tags": ["genres"], "security": [{"Bearer": []}], "summary": "List genres", "parameters": [{"in": "query", "name": "all", "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["genres"], "security": [{"Bearer": []}], "summary": "Create a genre (librarian/admin)", "responses": {"201": {"description": "Created"}, "409": {"description": "CONFLICT"}}}
        },
        "/genres/{code}": {
            "get": {"tags": ["genres"], "security": [{"Bearer": []}], "summary": "Get a genre", "responses": {"200": {"description": "OK"}, "404": {"description": "NOT_FOUND"}}},
            "put": {"tags": ["genres"], "security": [{"Bearer": []}], "summary": "Update a genre (librarian/admin)", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["genres"], "security": [{"Bearer": []}], "summary": "Disable a genre (librarian/admin)", "responses": {"204": {"description": "No Content"}}}
        },
        "/books/labels": {
            "post": {
                "tags": ["catalog"], "security": [{"Bearer": []}],
                "summary": "Spine labels as CSV (librarian/admin)",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "INVALID_ARGUMENT"}, "404": {"description": "BOOK_NOT_FOUND"}}
            }
        },
        "/loans/{loan_id}": {
            "get": {"tags": ["lending"], "security": [{"Bearer": []}], "summary": "Get a loan", "responses": {"200": {"description": "OK"}, "404": {"description": "LOAN_NOT_FOUND"}}}
        },
        "/loans/{loan_id}/return": {
            "post": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Return a loan",
                "responses": {"200": {"description": "OK"}, "409": {"description": "ALREADY_RETURNED"}, "500": {"description": "OVER_RELEASE"}}
            }
        },
        "/loans/{loan_id}/renew": {
            "post": {
                "tags": ["lending"], "security": [{"Bearer": []}],
                "summary": "Extend the due date",
                "responses": {"200": {"description": "OK"}, "400": {"description": "INVALID_DUE_DATE"}, "409": {"description": "ALREADY_RETURNED / RENEWAL_LIMIT"}}
            }
        }
    },
    "definitions": {
        "auth.LoginRequest": {
            "type": "object",
            "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}}
        },
        "lending.AdjustCopiesRequest": {
            "type": "object",
            "required": ["total_copies"],
            "properties": {"total_copies": {"type": "integer"}}
        },
        "lending.IssueLoanRequest": {
            "type": "object",
            "required": ["book_id", "member_id"],
            "properties": {"book_id": {"type": "string"}, "member_id": {"type": "string"}, "due_at": {"type": "string"}}
        },
        "lending.LoanResponse": {
            "type": "object",
            "properties": {
                "loan_id": {"type": "string"},
                "book_id": {"type": "string"},
                "member_id": {"type": "string"},
                "loaned_at": {"type": "string"},
                "due_at": {"type": "string"},
                "returned_at": {"type": "string"},
                "late_fee": {"type": "string"},
                "renew_count": {"type": "integer"},
                "is_overdue": {"type": "boolean"},
                "days_overdue": {"type": "integer"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Library API",
	Description:      "Catalog, membership and lending API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs is normally produced by running `swag init` against the
// `@...` annotation comments on the handlers in package server. Since the
// swag code generator cannot be run as part of building this repository,
// this file is hand-authored in the exact shape `swag init` emits (a
// package-level swag.Spec plus an embedded OpenAPI JSON template),
// grounded on SharedCode-sop's restapi, which wires the same
// swaggo/swag + swaggo/gin-swagger + swaggo/files trio directly.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "summary": "Enumerate annotation stores",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/{id}": {
            "get": {
                "summary": "Run a STAMQL query against a store",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "query", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "ApiError or StamError"},
                    "406": {"description": "NotAcceptable"}
                }
            },
            "post": {
                "summary": "Create an empty annotation store",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "PermissionDenied"}
                }
            }
        },
        "/{id}/annotations": {
            "get": {"summary": "List annotations", "responses": {"200": {"description": "OK"}}}
        },
        "/{id}/annotations/{aid}": {
            "get": {"summary": "Get one annotation", "responses": {"200": {"description": "OK"}}}
        },
        "/{id}/resources": {
            "get": {"summary": "List resources", "responses": {"200": {"description": "OK"}}}
        },
        "/{id}/resources/{rid}": {
            "get": {"summary": "Get a resource's full text", "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Create a resource", "responses": {"201": {"description": "Created"}}}
        },
        "/{id}/resources/{rid}/{begin}/{end}": {
            "get": {"summary": "Get a text slice of a resource", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger metadata. Its Host and BasePath are
// the fixed values below; nothing in stamd overrides them at startup.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "stamd API",
	Description:      "HTTP API onto a collection of on-disk STAM annotation stores.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

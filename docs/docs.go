// Package docs holds the Swagger spec served under the swagger build tag.
// Regenerate with `swag init -g cmd/skinsrv/docs.go -o docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/predict": {
            "post": {
                "description": "Ranks the diagnostic classes for an image and optional patient metadata. Model failures are answered with a uniform, uncertain ranking flagged as fallback.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["predict"],
                "summary": "Classify a lesion image",
                "parameters": [
                    {"type": "file", "description": "JPEG or PNG image", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Patient age", "name": "age", "in": "formData"},
                    {"type": "string", "description": "Patient sex", "name": "sex", "in": "formData"},
                    {"type": "string", "description": "Anatomical site", "name": "anatom_site_general", "in": "formData"},
                    {"type": "integer", "description": "Number of classes to return (default 3)", "name": "top_k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TopKResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/predict/summary": {
            "post": {
                "description": "Returns the two best classes, every class probability and the uncertainty flag.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["predict"],
                "summary": "Classify a lesion image (top two)",
                "parameters": [
                    {"type": "file", "description": "JPEG or PNG image", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Patient age", "name": "age", "in": "formData"},
                    {"type": "string", "description": "Patient sex", "name": "sex", "in": "formData"},
                    {"type": "string", "description": "Anatomical site", "name": "anatom_site_general", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SummaryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ClassProb": {
            "type": "object",
            "properties": {
                "class": {"type": "string", "example": "NV"},
                "prob": {"type": "number", "example": 0.71}
            }
        },
        "types.TopKResponse": {
            "type": "object",
            "properties": {
                "top3": {"type": "array", "items": {"$ref": "#/definitions/types.ClassProb"}},
                "fallback": {"type": "boolean"}
            }
        },
        "types.SummaryResponse": {
            "type": "object",
            "properties": {
                "top1": {"$ref": "#/definitions/types.ClassProb"},
                "top2": {"$ref": "#/definitions/types.ClassProb"},
                "all_probs": {"type": "object", "additionalProperties": {"type": "number"}},
                "uncertain": {"type": "boolean", "example": false},
                "fallback": {"type": "boolean"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "file is required"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "skinsrv API",
	Description:      "Multimodal skin-lesion classification: image plus patient metadata in, ranked diagnostic classes out.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

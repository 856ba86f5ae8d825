package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
// - GET /api/docs            -> alias for the OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	doc := func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	}
	rg.GET("/swagger/doc.json", doc)
	rg.GET("/api/docs", doc)
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>QuickSign Pro — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document covering the primary API surface.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "quicksign-pro", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": {
      "post": {
        "summary": "Register a new account (may require email verification)",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"fullName":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "verification code sent" }, "201": { "description": "account created" }, "409": { "description": "email already registered" } }
      }
    },
    "/api/auth/verify-email": {
      "post": { "summary": "Confirm a verification code and create the account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"code":{"type":"string"}}}}}}, "responses": { "201": { "description": "account created" }, "400": { "description": "invalid or expired code" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Authenticate and obtain a JWT", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "token returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/documents/upload": {
      "post": { "summary": "Upload a PDF or Word document", "responses": { "201": { "description": "document stored" }, "400": { "description": "missing or unsupported file" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get document metadata with signer projection", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } }
    },
    "/api/signature-requests": {
      "post": { "summary": "Create a signature request for a document", "responses": { "201": { "description": "request created" }, "400": { "description": "invalid signers" }, "404": { "description": "document not found" } } }
    },
    "/api/signature-requests/{id}/sign/{signerId}": {
      "post": { "summary": "Record a signature", "responses": { "200": { "description": "signature recorded" }, "409": { "description": "out of turn, already signed or request inactive" } } }
    },
    "/api/signature-requests/{id}/status": {
      "get": { "summary": "Public request status", "responses": { "200": { "description": "status" }, "404": { "description": "not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`

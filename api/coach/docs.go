// Package coach registers the Swagger document served at /swagger/.
package coach

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/coach"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/signup": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Create an account",
                "produces": [
                    "application/json"
                ],
                "description": "Creates an account for a @csun.edu or @my.csun.edu address and signs it in.",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Account details",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.SignupRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "user, accessToken",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.AuthResponse"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Email already registered",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Sign in",
                "produces": [
                    "application/json"
                ],
                "description": "Unknown emails and wrong passwords get the same 401 response.",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "user, accessToken",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.AuthResponse"
                        }
                    },
                    "400": {
                        "description": "Missing fields",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "invalid email or password",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Rotate the refresh token",
                "produces": [
                    "application/json"
                ],
                "description": "Exchanges the refresh cookie for a new access token and a new refresh cookie.",
                "responses": {
                    "200": {
                        "description": "user, accessToken",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.AuthResponse"
                        }
                    },
                    "401": {
                        "description": "No refresh cookie",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Invalid, expired, revoked or reused refresh token",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Sign out",
                "produces": [
                    "application/json"
                ],
                "description": "Revokes the refresh cookie's token when it is valid and clears the cookie. Always succeeds.",
                "responses": {
                    "200": {
                        "description": "ok",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.OKResponse"
                        }
                    }
                }
            }
        },
        "/api/user/profile": {
            "get": {
                "tags": [
                    "User"
                ],
                "summary": "Get profile",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "user",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.UserResponse"
                        }
                    },
                    "401": {
                        "description": "Missing access token",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Invalid or expired access token",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Account no longer exists",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "User"
                ],
                "summary": "Update profile",
                "produces": [
                    "application/json"
                ],
                "description": "Partial update. Omitted fields are unchanged.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Fields to change",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.UpdateProfileRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "user",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.UserResponse"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Missing access token",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Invalid or expired access token",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/user/avatar": {
            "post": {
                "tags": [
                    "User"
                ],
                "summary": "Set avatar",
                "produces": [
                    "application/json"
                ],
                "description": "Accepts an http(s) URL or a data:image/ URL of at most 2 MiB.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Avatar URL",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.AvatarRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "user",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.UserResponse"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/chat": {
            "post": {
                "tags": [
                    "Coach"
                ],
                "summary": "Ask the coach",
                "produces": [
                    "application/json"
                ],
                "description": "Signed-in callers get replies personalized with their profile; anonymous callers are allowed.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Message",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ChatRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ReplyResponse"
                        }
                    },
                    "400": {
                        "description": "Empty message",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Provider failure",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/trainer": {
            "post": {
                "tags": [
                    "Coach"
                ],
                "summary": "Ask the coach (chat-completions shape)",
                "produces": [
                    "application/json"
                ],
                "description": "Same as /api/chat but accepts either prompt or messages[0].content.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Prompt or messages",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.TrainerRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ReplyResponse"
                        }
                    },
                    "400": {
                        "description": "Empty message",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Provider failure",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/analyze-form": {
            "post": {
                "tags": [
                    "Coach"
                ],
                "summary": "Review exercise form",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Image and optional prompt",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/coachsdk.AnalyzeFormRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ReplyResponse"
                        }
                    },
                    "400": {
                        "description": "Missing or invalid image",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Provider failure",
                        "schema": {
                            "$ref": "#/definitions/httpx.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/health": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Service health",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "ok, mock",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/diag": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Provider round trip",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "ok, mock, reply",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.DiagResponse"
                        }
                    },
                    "500": {
                        "description": "Provider failure",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.DiagResponse"
                        }
                    }
                }
            }
        },
        "/livez": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Liveness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ProbeResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Readiness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ProbeResponse"
                        }
                    },
                    "503": {
                        "description": "A dependency is down",
                        "schema": {
                            "$ref": "#/definitions/coachsdk.ProbeResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "coachsdk.User": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "height_cm": {
                    "type": "integer"
                },
                "weight_kg": {
                    "type": "number"
                },
                "fitness_goal": {
                    "type": "string"
                },
                "experience_level": {
                    "type": "string"
                },
                "avatar_url": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "coachsdk.SignupRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "height_cm": {
                    "type": "integer"
                },
                "weight_kg": {
                    "type": "number"
                },
                "fitness_goal": {
                    "type": "string"
                },
                "experience_level": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password",
                "name"
            ]
        },
        "coachsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password"
            ]
        },
        "coachsdk.AuthResponse": {
            "type": "object",
            "properties": {
                "user": {
                    "$ref": "#/definitions/coachsdk.User"
                },
                "accessToken": {
                    "type": "string"
                }
            }
        },
        "coachsdk.UserResponse": {
            "type": "object",
            "properties": {
                "user": {
                    "$ref": "#/definitions/coachsdk.User"
                }
            }
        },
        "coachsdk.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "height_cm": {
                    "type": "integer"
                },
                "weight_kg": {
                    "type": "number"
                },
                "fitness_goal": {
                    "type": "string"
                },
                "experience_level": {
                    "type": "string"
                }
            }
        },
        "coachsdk.AvatarRequest": {
            "type": "object",
            "properties": {
                "avatar_url": {
                    "type": "string"
                }
            }
        },
        "coachsdk.ChatRequest": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "prompt": {
                    "type": "string"
                }
            }
        },
        "coachsdk.TrainerMessage": {
            "type": "object",
            "properties": {
                "role": {
                    "type": "string"
                },
                "content": {
                    "type": "string"
                }
            }
        },
        "coachsdk.TrainerRequest": {
            "type": "object",
            "properties": {
                "prompt": {
                    "type": "string"
                },
                "messages": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/coachsdk.TrainerMessage"
                    }
                }
            }
        },
        "coachsdk.AnalyzeFormRequest": {
            "type": "object",
            "properties": {
                "image": {
                    "type": "string"
                },
                "prompt": {
                    "type": "string"
                }
            },
            "required": [
                "image"
            ]
        },
        "coachsdk.ReplyResponse": {
            "type": "object",
            "properties": {
                "reply": {
                    "type": "string"
                }
            }
        },
        "coachsdk.OKResponse": {
            "type": "object",
            "properties": {
                "ok": {
                    "type": "boolean"
                }
            }
        },
        "coachsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "ok": {
                    "type": "boolean"
                },
                "mock": {
                    "type": "boolean"
                }
            }
        },
        "coachsdk.DiagResponse": {
            "type": "object",
            "properties": {
                "ok": {
                    "type": "boolean"
                },
                "mock": {
                    "type": "boolean"
                },
                "reply": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "coachsdk.ProbeChecks": {
            "type": "object",
            "properties": {
                "database": {
                    "type": "string"
                },
                "ledger": {
                    "type": "string"
                }
            }
        },
        "coachsdk.ProbeResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "checks": {
                    "$ref": "#/definitions/coachsdk.ProbeChecks"
                }
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "invalid email or password"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Coach API",
	Description:      "Fitness coach chat service. Access tokens are short-lived HS256 JWTs sent as bearer tokens;\nrefresh tokens travel only in the HttpOnly coach_refresh cookie scoped to /api/auth.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

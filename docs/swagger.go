// Package docs регистрирует OpenAPI описание Itinerary Microservice для swag.
// Обновляется командой: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
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
        "/api/v1/health": {
            "get": {"tags": ["health"], "summary": "Проверка состояния", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/itineraries": {
            "get": {"tags": ["itineraries"], "summary": "Список маршрутов", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["itineraries"], "summary": "Создать маршрут", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/itineraries/{id}": {
            "get": {"tags": ["itineraries"], "summary": "Получить маршрут", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["itineraries"], "summary": "Обновить маршрут", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["itineraries"], "summary": "Удалить маршрут", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/itineraries/{id}/enriched": {
            "get": {"tags": ["itineraries"], "summary": "Маршрут с данными каталога", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/itineraries/{id}/statistics": {
            "get": {"tags": ["itineraries"], "summary": "Статистика маршрута", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/itineraries/{id}/points": {
            "post": {"tags": ["points"], "summary": "Добавить точку", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/itineraries/{id}/points/{poi_id}": {
            "delete": {"tags": ["points"], "summary": "Удалить точку", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/itineraries/{id}/points/order": {
            "put": {"tags": ["points"], "summary": "Изменить порядок точек", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/itineraries/{id}/optimize": {
            "post": {"tags": ["itineraries"], "summary": "Оптимизировать маршрут", "responses": {"200": {"description": "OK"}, "202": {"description": "Accepted"}}}
        },
        "/api/v1/itineraries/{id}/duplicate": {
            "post": {"tags": ["itineraries"], "summary": "Дублировать маршрут", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/itineraries/{id}/archive": {
            "post": {"tags": ["itineraries"], "summary": "Архивировать маршрут", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/itineraries/{id}/unarchive": {
            "post": {"tags": ["itineraries"], "summary": "Восстановить маршрут из архива", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/itineraries/{id}/suggestions/nearby": {
            "get": {"tags": ["suggestions"], "summary": "Предложения рядом с днём", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/itineraries/{id}/suggestions/city": {
            "get": {"tags": ["suggestions"], "summary": "Предложения по городу", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Itinerary Microservice API",
	Description:      "Микросервис для планирования многодневных маршрутов по точкам интереса: дни, точки, оптимизация порядка, статистика и подсказки.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package utils

import "github.com/gofiber/fiber/v2"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, env Envelope) error {
	return c.Status(status).JSON(env)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return Respond(c, fiber.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created sends a 201 JSON response.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return Respond(c, fiber.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail sends an error envelope with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return Respond(c, status, Envelope{Success: false, Message: message})
}

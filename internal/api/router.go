package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupRouter wires the HTTP surface. Any error a handler returns is mapped
// to a JSON body with the fault's message; only *fiber.Error carries a
// non-500 status.
func SetupRouter(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "CPIC RAG API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "CPIC RAG API is running"})
	})

	apiGroup := app.Group("/api")
	apiGroup.Post("/ingest", h.PostIngest)
	apiGroup.Get("/ingest/options", h.GetIngestOptions)
	apiGroup.Post("/query", h.PostQuery)
	apiGroup.Post("/phenotype", h.PostPhenotype)
	apiGroup.Get("/genes", h.GetGenes)
	apiGroup.Get("/diplotypes/:gene", h.GetDiplotypes)
	apiGroup.Get("/guidelines", h.GetGuidelines)
	apiGroup.Get("/status", h.GetStatus)

	return app
}

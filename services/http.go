package services

import (
	"fmt"
	"os"
	"strconv"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/provisa-fr/provisa_api/services/handlers"
	"github.com/provisa-fr/provisa_api/shared"
)

type HttpService struct {
	appContext.DefaultService

	applicationSvc *ApplicationService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.applicationSvc = svc.Service(APPLICATION_SVC).(*ApplicationService)

	svc.app = svc.newRouter(handlers.NewApplicationHandler(svc.applicationSvc))

	log.WithField("port", svc.port).Info("HTTP server starting")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) newRouter(applicationHandler *handlers.ApplicationHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: shared.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(MonitoringMiddleware())

	// The form is embedded on third-party-hosted marketing pages; the
	// preflight must accept their origins and the client SDK headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Authorization, X-Client-Info, Apikey, Content-Type",
	}))

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Post("/applications", applicationHandler.SubmitApplication)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseError(c, fiber.StatusNotFound, "page not found")
	})

	return app
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {string} string "pong"
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return c.Status(fiber.StatusOK).SendString("pong")
}

package handlers

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/provisa-fr/provisa_api/dto"
	"github.com/provisa-fr/provisa_api/shared"
)

type ApplicationHandler struct {
	applicationSvc ApplicationServiceInterface
}

func NewApplicationHandler(applicationSvc ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{
		applicationSvc: applicationSvc,
	}
}

// @Summary Submit Application
// @Description This endpoint submits a candidature for professional immigration
// @Tags applications
// @Accept  json
// @Produce json
// @Param submitApplicationRequest body dto.SubmitApplicationRequest true "Submit application request"
// @Success 200 {object} shared.SuccessResponse
// @Failure 400 {object} shared.ErrorResponse
// @Failure 429 {object} shared.ErrorResponse
// @Failure 500 {object} shared.ErrorResponse
// @Router /api/v1/applications [post]
func (h *ApplicationHandler) SubmitApplication(c *fiber.Ctx) error {
	var req dto.SubmitApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, shared.MsgInvalidBody)
	}

	resp, err := h.applicationSvc.SubmitApplication(&req, getClientIP(c))
	if err != nil {
		return err
	}

	return shared.ResponseSuccess(c, resp.Message)
}

func getClientIP(c *fiber.Ctx) string {
	// Check for forwarded IP first (for load balancers/proxies)
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Check Cloudflare header
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		return cfIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}

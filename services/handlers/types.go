package handlers

import (
	"github.com/provisa-fr/provisa_api/dto"
)

type ApplicationServiceInterface interface {
	SubmitApplication(req *dto.SubmitApplicationRequest, clientIP string) (*dto.SubmitApplicationResponse, error)
}

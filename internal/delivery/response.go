package delivery

import (
	"errors"
	"net/http"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string              `json:"Status"`
	Message string              `json:"Message"`
	Errors  []domain.FieldError `json:"Errors,omitempty"`
	Data    interface{}         `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {

	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// formView is what a rejected form is rendered again with.
type formView struct {
	Form    domain.ProductForm `json:"form"`
	Lookups domain.FormLookups `json:"lookups"`
}

func RejectionResponse(c *gin.Context, rejection *domain.FormRejection) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Status:  "Fail",
		Message: "Please correct the highlighted fields",
		Errors:  domain.FieldErrors(rejection),
		Data:    formView{Form: rejection.Form, Lookups: rejection.Lookups},
	})
}

func mapErrorToStatus(err error) int {
	var rejection *domain.FormRejection
	switch {
	case errors.As(err, &rejection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidProductID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

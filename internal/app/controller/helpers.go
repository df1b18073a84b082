package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
	"github.com/ikkim/moda-backend/pkg/logger"
)

// parseID reads a numeric path parameter and answers 400 when it is not one.
func parseID(c *gin.Context, log *logger.Logger, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Warn("Invalid path id", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "El identificador no es válido")
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the integer query value or def when absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// validationFields lists the failed binding rule per request field. Malformed
// JSON yields no fields.
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fields
}

type serviceError struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps business sentinels to responses. Order matters only
// for errors wrapping more than one sentinel.
var serviceErrors = []serviceError{
	{service.ErrOutOfStock, http.StatusConflict, apperrors.CartOutOfStock, "No hay stock suficiente para la cantidad solicitada"},
	{service.ErrInvalidCheckoutState, http.StatusUnprocessableEntity, apperrors.CheckoutInvalidState, "Tu carrito o dirección no están listos para pagar"},
	{service.ErrDuplicateOrderNumber, http.StatusConflict, apperrors.OrderDuplicateNumber, "No pudimos generar el número de orden. Inténtalo nuevamente"},
	{service.ErrInvalidTransition, http.StatusConflict, apperrors.OrderInvalidTransition, "El pedido no puede pasar a ese estado"},
	{service.ErrInvalidStatus, http.StatusBadRequest, apperrors.OrderInvalidStatus, "El estado no existe"},
	{service.ErrOrderNotPayable, http.StatusConflict, apperrors.OrderNotPayable, "Solo se pueden pagar pedidos pendientes"},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "La orden no existe"},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "El producto no está en tu carrito"},
	{service.ErrVariantNotFound, http.StatusNotFound, apperrors.ProductVariantNotFound, "La variante no existe"},
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound, "El producto no existe"},
	{service.ErrVariantExists, http.StatusConflict, apperrors.ProductVariantExists, "Ya existe una variante con esa talla y color"},
	{service.ErrInvalidProduct, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Los datos del producto no son válidos"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange, "La cantidad debe ser mayor a cero"},
	{service.ErrAddressNotFound, http.StatusNotFound, apperrors.AddressNotFound, "La dirección no existe"},
	{service.ErrInvalidAddress, http.StatusBadRequest, apperrors.ValidationRequired, "Calle, número y comuna son obligatorios"},
	{service.ErrTryOnRateLimited, http.StatusTooManyRequests, apperrors.TryOnRateLimited, "Demasiadas pruebas seguidas. Espera un minuto"},
	{service.ErrInvalidImage, http.StatusBadRequest, apperrors.TryOnInvalidImage, "La foto debe ser JPG, PNG o WEBP de hasta 10MB"},
	{service.ErrExternalService, http.StatusBadGateway, apperrors.TryOnGenerationFailed, "No pudimos generar la imagen. Inténtalo nuevamente"},
}

// respondError answers with the mapped business error, or classifies err
// as an infrastructure failure.
func respondError(c *gin.Context, log *logger.Logger, err error, context string, fields map[string]interface{}) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.target) {
			log.Warn("Request rejected: "+context, mergeFields(fields, map[string]interface{}{
				"error": err.Error(),
			}))
			apperrors.RespondWithError(c, se.status, se.code, se.message)
			return
		}
	}
	log.Error("Failed to "+context, err, fields)
	apperrors.ParseAndRespond(c, 0, err, context)
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// currentUser returns the authenticated user id or answers 401.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

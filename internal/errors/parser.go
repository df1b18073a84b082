package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a classified error ready to be sent to the client.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies database and network errors into a user-facing
// code and message without leaking SQL details. context names the
// operation ("create order", "update product", ...).
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Ocurrió un error en el servidor",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// PostgreSQL 23505 / SQLite UNIQUE, or the translated gorm error.
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// PostgreSQL 23503 / SQLite FOREIGN KEY.
	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower)
	}

	// PostgreSQL 23502 / SQLite NOT NULL.
	if strings.Contains(errStrLower, "violates not-null constraint") || strings.Contains(errStrLower, "not null constraint failed") {
		return parseNotNullError(errStrLower)
	}

	// PostgreSQL 23514 / SQLite CHECK.
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || strings.Contains(errStrLower, "check constraint") {
		return parseCheckConstraintError(errStrLower)
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") ||
		strings.Contains(errStrLower, "deadline exceeded") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "No pudimos contactar un servicio externo. Inténtalo nuevamente",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "order_number"):
		return ErrorInfo{Code: OrderDuplicateNumber, Message: "No pudimos generar el número de orden. Inténtalo nuevamente"}
	case strings.Contains(errLower, "idx_variant_product_size_color") || strings.Contains(errLower, "variants."):
		return ErrorInfo{Code: ProductVariantExists, Message: "Ya existe una variante con esa talla y color"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "El correo ya está registrado"}
	case strings.Contains(errLower, "carts") || strings.Contains(errLower, "idx_cart_item_variant"):
		return ErrorInfo{Code: ResourceConflict, Message: "Tu carrito fue modificado en paralelo. Inténtalo nuevamente"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "El registro ya existe"}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "El registro tiene datos asociados y no puede eliminarse"}
	}
	switch {
	case strings.Contains(errLower, "product_id"):
		return ErrorInfo{Code: ProductNotFound, Message: "El producto no existe"}
	case strings.Contains(errLower, "variant_id"):
		return ErrorInfo{Code: ProductVariantNotFound, Message: "La variante no existe"}
	case strings.Contains(errLower, "user_id"):
		return ErrorInfo{Code: ResourceNotFound, Message: "El usuario no existe"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "No encontramos un dato relacionado"}
}

func parseNotNullError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: ValidationRequired, Message: "El correo es obligatorio"}
	case strings.Contains(errLower, "street") || strings.Contains(errLower, "district"):
		return ErrorInfo{Code: ValidationRequired, Message: "La dirección está incompleta"}
	case strings.Contains(errLower, "name"):
		return ErrorInfo{Code: ValidationRequired, Message: "El nombre es obligatorio"}
	}
	return ErrorInfo{Code: ValidationRequired, Message: "Falta un campo obligatorio"}
}

func parseCheckConstraintError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "stock") {
		return ErrorInfo{Code: CartOutOfStock, Message: "Stock insuficiente"}
	}
	return ErrorInfo{Code: ValidationInvalidInput, Message: "Los datos ingresados no son válidos"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "variant"):
		return "La variante no existe"
	case strings.Contains(contextLower, "product"):
		return "El producto no existe"
	case strings.Contains(contextLower, "order"):
		return "La orden no existe"
	case strings.Contains(contextLower, "address"):
		return "La dirección no existe"
	case strings.Contains(contextLower, "cart"):
		return "El producto no está en tu carrito"
	case strings.Contains(contextLower, "user"):
		return "El usuario no existe"
	}
	return "No encontramos lo que buscas"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "No pudimos crear el registro. Inténtalo nuevamente"
	case strings.Contains(contextLower, "update"):
		return "No pudimos actualizar el registro. Inténtalo nuevamente"
	case strings.Contains(contextLower, "delete"):
		return "No pudimos eliminar el registro. Inténtalo nuevamente"
	}
	return "Ocurrió un error en el servidor. Inténtalo nuevamente en unos minutos"
}

// StatusFor picks the HTTP status that matches a classified error.
func StatusFor(info ErrorInfo) int {
	switch info.Code {
	case ResourceNotFound, ProductNotFound, ProductVariantNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict, OrderDuplicateNumber, ProductVariantExists, AuthEmailAlreadyExists, CartOutOfStock:
		return http.StatusConflict
	case ValidationRequired, ValidationInvalidInput:
		return http.StatusBadRequest
	case InternalExternalAPI:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ParseAndRespond classifies err and writes the response. statusCode of 0
// derives the status from the classification.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	if statusCode == 0 {
		statusCode = StatusFor(errorInfo)
	}
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

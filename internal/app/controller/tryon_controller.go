package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
)

const tryOnImageField = "image"

type TryOnController struct {
	tryOnService service.TryOnService
}

func NewTryOnController(tryOnService service.TryOnService) *TryOnController {
	return &TryOnController{
		tryOnService: tryOnService,
	}
}

type RecordTryOnRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// readTryOnImage loads the uploaded photo, reading at most one byte past
// the size limit so oversized uploads are still rejected by the service.
func readTryOnImage(c *gin.Context) (service.TryOnImage, error) {
	header, err := c.FormFile(tryOnImageField)
	if err != nil {
		return service.TryOnImage{}, err
	}
	file, err := header.Open()
	if err != nil {
		return service.TryOnImage{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxTryOnImageSize+1))
	if err != nil {
		return service.TryOnImage{}, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return service.TryOnImage{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Generate renders the product on the customer's photo
// POST /api/v1/products/:id/try-on
func (ctrl *TryOnController) Generate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	image, err := readTryOnImage(c)
	if err != nil {
		log.Warn("Missing try-on image", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.TryOnInvalidImage, "Debes subir una foto")
		return
	}

	result, err := ctrl.tryOnService.Generate(c.Request.Context(), userID, productID, image)
	if err != nil {
		respondError(c, log, err, "generate try-on", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return
	}

	log.Info("Try-on generated", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"event_id":   result.EventID,
	})
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RecordEvent logs a try-on made outside the generator; guests allowed
// POST /api/v1/try-on/events
func (ctrl *TryOnController) RecordEvent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RecordTryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Debes indicar el producto")
		return
	}

	var userID *uint
	if id, ok := middleware.GetUserID(c); ok {
		userID = &id
	}

	event, err := ctrl.tryOnService.RecordEvent(userID, req.ProductID)
	if err != nil {
		respondError(c, log, err, "record try-on event", map[string]interface{}{
			"product_id": req.ProductID,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

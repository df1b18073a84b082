package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Rut       string `json:"rut"`
	Street    string `json:"street" binding:"required"`
	Number    string `json:"number" binding:"required"`
	Apartment string `json:"apartment"`
	District  string `json:"district" binding:"required"`
	Phone     string `json:"phone"`
	IsDefault *bool  `json:"is_default"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Rut:       r.Rut,
		Street:    r.Street,
		Number:    r.Number,
		Apartment: r.Apartment,
		District:  r.District,
		Phone:     r.Phone,
		IsDefault: r.IsDefault,
	}
}

// ListAddresses returns the user's addresses, default first
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.ListAddresses(userID)
	if err != nil {
		respondError(c, log, err, "list addresses", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Calle, número y comuna son obligatorios")
		return
	}

	address, err := ctrl.addressService.CreateAddress(userID, req.input())
	if err != nil {
		respondError(c, log, err, "create address", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	log.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"address": address})
}

// UpdateAddress
// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Calle, número y comuna son obligatorios")
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, addressID, req.input())
	if err != nil {
		respondError(c, log, err, "update address", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// DeleteAddress
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, addressID); err != nil {
		respondError(c, log, err, "delete address", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dirección eliminada"})
}

// SetDefaultAddress
// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.SetDefault(userID, addressID); err != nil {
		respondError(c, log, err, "set default address", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dirección predeterminada actualizada"})
}

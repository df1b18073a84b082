package service

import (
	"errors"
	"strings"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidAddress  = errors.New("street, number and district are required")
)

type AddressInput struct {
	Rut       string `json:"rut"`
	Street    string `json:"street"`
	Number    string `json:"number"`
	Apartment string `json:"apartment"`
	District  string `json:"district"`
	Phone     string `json:"phone"`
	IsDefault *bool  `json:"is_default"`
}

type AddressService interface {
	ListAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefault(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
	policy      *bluemonday.Policy
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		policy:      bluemonday.StrictPolicy(),
	}
}

func (s *addressService) ListAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	address := &model.Address{UserID: userID}
	if err := s.apply(address, input); err != nil {
		return nil, err
	}

	logger.Info("Creating address", map[string]interface{}{
		"user_id":    userID,
		"district":   address.District,
		"is_default": address.IsDefault,
	})

	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	address, err := s.findOwned(userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(address, input); err != nil {
		return nil, err
	}

	if err := s.addressRepo.Update(address); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return nil, err
	}

	logger.Info("Address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if _, err := s.findOwned(userID, addressID); err != nil {
		return err
	}
	if err := s.addressRepo.Delete(addressID); err != nil {
		return err
	}

	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) SetDefault(userID, addressID uint) error {
	if _, err := s.findOwned(userID, addressID); err != nil {
		return err
	}
	if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}

	logger.Info("Default address changed", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

// findOwned reports a foreign address as missing.
func (s *addressService) findOwned(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		logger.Warn("Address access denied: ownership mismatch", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return nil, ErrAddressNotFound
	}
	return address, nil
}

func (s *addressService) apply(address *model.Address, input AddressInput) error {
	clean := func(v string) string {
		return strings.TrimSpace(s.policy.Sanitize(v))
	}

	address.Rut = clean(input.Rut)
	address.Street = clean(input.Street)
	address.Number = clean(input.Number)
	address.Apartment = clean(input.Apartment)
	address.District = clean(input.District)
	address.Phone = clean(input.Phone)
	if input.IsDefault != nil {
		address.IsDefault = *input.IsDefault
	}

	if address.Street == "" || address.Number == "" || address.District == "" {
		return ErrInvalidAddress
	}
	return nil
}

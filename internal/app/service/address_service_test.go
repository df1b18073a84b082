package service

import (
	"testing"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func homeAddress() AddressInput {
	return AddressInput{
		Rut:      "12.345.678-5",
		Street:   "Av. Providencia",
		Number:   "1234",
		District: "Providencia",
		Phone:    "+56 9 1234 5678",
	}
}

func TestAddressService_CreateAddress(t *testing.T) {
	conn := newTestDB(t)
	addressService := NewAddressService(repository.NewAddressRepository(conn))
	user := createUser(t, conn, "cliente@moda.cl", model.RoleCustomer)

	in := homeAddress()
	in.Apartment = `<b>Depto 42</b><img src=x onerror=alert(1)>`
	first, err := addressService.CreateAddress(user.ID, in)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "Depto 42", first.Apartment)

	second, err := addressService.CreateAddress(user.ID, homeAddress())
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	in = homeAddress()
	in.Street = "<script></script>"
	_, err = addressService.CreateAddress(user.ID, in)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddressService_SetDefaultKeepsSingleDefault(t *testing.T) {
	conn := newTestDB(t)
	addressService := NewAddressService(repository.NewAddressRepository(conn))
	user := createUser(t, conn, "cliente@moda.cl", model.RoleCustomer)

	first, err := addressService.CreateAddress(user.ID, homeAddress())
	require.NoError(t, err)
	second, err := addressService.CreateAddress(user.ID, homeAddress())
	require.NoError(t, err)

	require.NoError(t, addressService.SetDefault(user.ID, second.ID))

	addresses, err := addressService.ListAddresses(user.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, second.ID, addresses[0].ID)
	assert.True(t, addresses[0].IsDefault)
	assert.Equal(t, first.ID, addresses[1].ID)
	assert.False(t, addresses[1].IsDefault)
}

func TestAddressService_OwnershipMismatchIsNotFound(t *testing.T) {
	conn := newTestDB(t)
	addressService := NewAddressService(repository.NewAddressRepository(conn))
	owner := createUser(t, conn, "cliente@moda.cl", model.RoleCustomer)
	stranger := createUser(t, conn, "otra@moda.cl", model.RoleCustomer)

	address, err := addressService.CreateAddress(owner.ID, homeAddress())
	require.NoError(t, err)

	_, err = addressService.UpdateAddress(stranger.ID, address.ID, homeAddress())
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.ErrorIs(t, addressService.DeleteAddress(stranger.ID, address.ID), ErrAddressNotFound)
	assert.ErrorIs(t, addressService.SetDefault(stranger.ID, address.ID), ErrAddressNotFound)

	in := homeAddress()
	in.District = "Ñuñoa"
	updated, err := addressService.UpdateAddress(owner.ID, address.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Ñuñoa", updated.District)
	assert.True(t, updated.IsDefault)

	require.NoError(t, addressService.DeleteAddress(owner.ID, address.ID))
	addresses, err := addressService.ListAddresses(owner.ID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

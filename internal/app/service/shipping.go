package service

const (
	ShippingCourier = "1"
	ShippingFlash   = "2"

	CourierShippingCost int64 = 5990
	FlashShippingCost   int64 = 3990
)

type ShippingMethod struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Cost  int64  `json:"cost"`
}

var shippingMethods = []ShippingMethod{
	{Code: ShippingCourier, Label: "Courier Nacional", Cost: CourierShippingCost},
	{Code: ShippingFlash, Label: "Flash Local", Cost: FlashShippingCost},
}

// ShippingMethods returns the selectable methods in display order.
func ShippingMethods() []ShippingMethod {
	methods := make([]ShippingMethod, len(shippingMethods))
	copy(methods, shippingMethods)
	return methods
}

// LookupShipping resolves a method code. Unknown codes ship for free with
// an empty label rather than failing the checkout.
func LookupShipping(code string) ShippingMethod {
	for _, m := range shippingMethods {
		if m.Code == code {
			return m
		}
	}
	return ShippingMethod{Code: code}
}

package internal

// Actor is the resolved identity of the caller.
type Actor struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Role    Role    `json:"role"`
	Country Country `json:"country"`
}

// Decision is the outcome of a policy check.
type Decision int

const (
	Allow Decision = iota
	// Deny surfaces as 403.
	Deny
	// Hide surfaces as 404 so that a resource of another tenant looks absent.
	Hide
)

// Every rule below is a pure function of the actor and the target resource.
// ADMIN is checked first and is never restricted by country or ownership.

// CanCheckout reports whether actor may place an order at a restaurant
// located in restaurantCountry. MEMBER can never check out.
func CanCheckout(a Actor, restaurantCountry Country) Decision {
	switch a.Role {
	case RoleAdmin:
		return Allow
	case RoleManager:
		if a.Country == restaurantCountry {
			return Allow
		}
	}
	return Deny
}

// MayCheckout is the role half of CanCheckout, evaluated before the cart
// is looked at.
func MayCheckout(a Actor) bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

func CanViewOrder(a Actor, ownerID string, orderCountry Country) Decision {
	switch {
	case a.Role == RoleAdmin:
		return Allow
	case a.Role == RoleManager && a.Country == orderCountry:
		return Allow
	case a.ID == ownerID:
		return Allow
	}
	return Hide
}

// CanCancelOrder lets a MEMBER cancel only their own order. A member's own
// Cancelled order is allowed through so the caller reports the conflict.
func CanCancelOrder(a Actor, ownerID string, orderCountry Country, current OrderStatus) Decision {
	switch a.Role {
	case RoleAdmin:
		return Allow
	case RoleManager:
		if a.Country == orderCountry {
			return Allow
		}
		return Deny
	case RoleMember:
		if a.ID == ownerID && current != OrderStatusFulfilled {
			return Allow
		}
	}
	return Deny
}

// CancelledScope returns the country filter for listing archived
// cancellations. A nil country means every country.
func CancelledScope(a Actor) (*Country, Decision) {
	switch a.Role {
	case RoleAdmin:
		return nil, Allow
	case RoleManager:
		c := a.Country
		return &c, Allow
	}
	return nil, Deny
}

func CanUpdatePayment(a Actor) Decision {
	if a.Role == RoleAdmin {
		return Allow
	}
	return Deny
}

// CanCharge only checks ownership. The order country is not compared with
// the payment method country.
func CanCharge(a Actor, ownerID string) Decision {
	if a.ID == ownerID {
		return Allow
	}
	return Hide
}

// RestaurantScope returns the country filter for listing restaurants.
func RestaurantScope(a Actor) *Country {
	if a.Role == RoleAdmin {
		return nil
	}
	c := a.Country
	return &c
}

func CanViewRestaurant(a Actor, restaurantCountry Country) Decision {
	if a.Role == RoleAdmin || a.Country == restaurantCountry {
		return Allow
	}
	return Hide
}

func CanCreateRestaurant(a Actor) Decision {
	if a.Role == RoleAdmin {
		return Allow
	}
	return Deny
}

// CanDeleteRestaurant is admin only. Existing orders keep their own copy
// of the restaurant name and prices.
func CanDeleteRestaurant(a Actor) Decision {
	if a.Role == RoleAdmin {
		return Allow
	}
	return Deny
}

// CanEditMenu covers add, edit and delete of menu items. Members are trusted
// contributors to their own country's catalog.
func CanEditMenu(a Actor, restaurantCountry Country) Decision {
	switch a.Role {
	case RoleAdmin:
		return Allow
	case RoleManager, RoleMember:
		if a.Country == restaurantCountry {
			return Allow
		}
	}
	return Deny
}

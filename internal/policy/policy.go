// Package policy holds the authorization predicates shared by every handler.
package policy

import (
	"renTrentoBack/internal/models"
)

// CanAccessRental allows admins and the two parties of the rental.
func CanAccessRental(caller models.Principal, rental models.Rental) bool {
	if caller.IsAdmin() {
		return true
	}
	return caller.ID != "" && (caller.ID == rental.RenterID || caller.ID == rental.ClientID)
}

// CanManageProduct allows admins and the product owner.
func CanManageProduct(caller models.Principal, product models.Product) bool {
	return caller.IsAdmin() || (caller.ID != "" && caller.ID == product.OwnerID)
}

// CanManageUser allows admins and the user themselves.
func CanManageUser(caller models.Principal, userID string) bool {
	return caller.IsAdmin() || (caller.ID != "" && caller.ID == userID)
}

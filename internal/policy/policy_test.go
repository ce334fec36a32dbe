package policy

import (
	"testing"

	"renTrentoBack/internal/models"
)

func TestCanAccessRental(t *testing.T) {
	rental := models.Rental{ID: "r1", RenterID: "owner", ClientID: "client"}
	cases := []struct {
		name   string
		caller models.Principal
		want   bool
	}{
		{"renter", models.Principal{ID: "owner", Role: models.RoleUser}, true},
		{"client", models.Principal{ID: "client", Role: models.RoleUser}, true},
		{"admin", models.Principal{ID: "someone", Role: models.RoleAdmin}, true},
		{"stranger", models.Principal{ID: "someone", Role: models.RoleUser}, false},
		{"anonymous", models.Principal{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAccessRental(tc.caller, rental); got != tc.want {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestCanManageProduct(t *testing.T) {
	product := models.Product{ID: "p1", OwnerID: "owner"}
	if !CanManageProduct(models.Principal{ID: "owner"}, product) {
		t.Fatal("owner must manage product")
	}
	if CanManageProduct(models.Principal{ID: "other", Role: models.RoleUser}, product) {
		t.Fatal("stranger must not manage product")
	}
	if !CanManageProduct(models.Principal{ID: "other", Role: models.RoleAdmin}, product) {
		t.Fatal("admin must manage product")
	}
}

func TestCanManageUser(t *testing.T) {
	if !CanManageUser(models.Principal{ID: "u1"}, "u1") {
		t.Fatal("user must manage self")
	}
	if CanManageUser(models.Principal{ID: "u1"}, "u2") {
		t.Fatal("user must not manage others")
	}
	if CanManageUser(models.Principal{}, "") {
		t.Fatal("empty principal must not match empty id")
	}
}

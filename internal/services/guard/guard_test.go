package guard

import (
	"testing"

	"github.com/Heidric/storefront/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owned(by int64) *model.Product {
	return &model.Product{ID: 1, SupplierID: &by}
}

func TestCheck(t *testing.T) {
	admin := &model.ClaimSet{Username: "root", UserID: 1, IsAdmin: true}
	supplier7 := &model.ClaimSet{Username: "sup", UserID: 7, IsSupplier: true}
	customer := &model.ClaimSet{Username: "cus", UserID: 9, IsCustomer: true}
	nobody := &model.ClaimSet{Username: "nobody", UserID: 11}

	tests := []struct {
		name    string
		claims  *model.ClaimSet
		action  Action
		allowed bool
	}{
		{"admin creates", admin, Create(), true},
		{"supplier creates", supplier7, Create(), true},
		{"customer cannot create", customer, Create(), false},
		{"admin mutates any product", admin, Mutate(owned(9)), true},
		{"supplier mutates own product", supplier7, Mutate(owned(7)), true},
		{"supplier cannot mutate foreign product", supplier7, Mutate(owned(9)), false},
		{"supplier cannot mutate unowned product", supplier7, Mutate(&model.Product{ID: 1}), false},
		{"customer cannot mutate", customer, Mutate(owned(9)), false},
		{"supplier cannot mutate without a target", supplier7, Action{Kind: MutateProduct}, false},
		{"customer reviews", customer, Review(), true},
		{"supplier cannot review", supplier7, Review(), false},
		{"admin without customer flag cannot review", admin, Review(), false},
		{"admin deletes review", admin, RemoveReview(), true},
		{"customer cannot delete review", customer, RemoveReview(), false},
		{"no roles", nobody, Create(), false},
		{"nil claims", nil, Create(), false},
		{"unknown action", admin, Action{Kind: "drop_tables"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(tt.claims, tt.action)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestAuthorize(t *testing.T) {
	supplier7 := &model.ClaimSet{UserID: 7, IsSupplier: true}

	require.NoError(t, Authorize(supplier7, Mutate(owned(7))))

	err := Authorize(supplier7, Mutate(owned(9)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "does not own")
}

func TestCustomerFlagAloneDecidesReview(t *testing.T) {
	c := &model.ClaimSet{UserID: 3, IsAdmin: true, IsSupplier: true, IsCustomer: false}
	assert.ErrorIs(t, Authorize(c, Review()), ErrForbidden)
}

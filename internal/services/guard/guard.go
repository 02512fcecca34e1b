// Package guard holds the role-flag predicates that decide whether an
// authenticated caller may perform a catalog or review write. It does no I/O.
package guard

import (
	"github.com/Heidric/storefront/internal/metrics"
	"github.com/Heidric/storefront/internal/model"
	"github.com/pkg/errors"
)

var ErrForbidden = errors.New("not enough permissions")

type Kind string

const (
	// CreateProduct is allowed to admins and suppliers.
	CreateProduct Kind = "create_product"
	// MutateProduct covers update and delete: admins, or the supplier who
	// owns the product.
	MutateProduct Kind = "mutate_product"
	SubmitReview  Kind = "submit_review"
	DeleteReview  Kind = "delete_review"
)

type Action struct {
	Kind Kind
	// Product is the target of MutateProduct.
	Product *model.Product
}

func Create() Action { return Action{Kind: CreateProduct} }

func Mutate(p *model.Product) Action {
	return Action{Kind: MutateProduct, Product: p}
}

func Review() Action { return Action{Kind: SubmitReview} }

func RemoveReview() Action { return Action{Kind: DeleteReview} }

type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Reason: reason} }

// Check evaluates action against the caller's claims. A nil claim set is
// always denied.
func Check(claims *model.ClaimSet, action Action) Decision {
	if claims == nil {
		return deny("unauthenticated")
	}

	switch action.Kind {
	case CreateProduct:
		if claims.IsAdmin {
			return allow("admin")
		}
		if claims.IsSupplier {
			return allow("supplier")
		}
		return deny("admin or supplier role required")
	case MutateProduct:
		if claims.IsAdmin {
			return allow("admin")
		}
		if !claims.IsSupplier {
			return deny("admin or supplier role required")
		}
		if action.Product == nil || !action.Product.OwnedBy(claims.UserID) {
			return deny("supplier does not own the product")
		}
		return allow("owner")
	case SubmitReview:
		if claims.IsCustomer {
			return allow("customer")
		}
		return deny("customer role required")
	case DeleteReview:
		if claims.IsAdmin {
			return allow("admin")
		}
		return deny("admin role required")
	default:
		return deny("unknown action")
	}
}

// Authorize is Check reduced to an error. Denials wrap ErrForbidden with the
// reason. Every decision is counted.
func Authorize(claims *model.ClaimSet, action Action) error {
	d := Check(claims, action)
	if d.Allowed {
		metrics.AuthorizationDecisionsTotal.WithLabelValues(string(action.Kind), "allow").Inc()
		return nil
	}

	metrics.AuthorizationDecisionsTotal.WithLabelValues(string(action.Kind), "deny").Inc()

	return errors.Wrap(ErrForbidden, d.Reason)
}

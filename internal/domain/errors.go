package domain

import "errors"

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrDerivationFailed  = errors.New("cannot derive customer id from notification")
	ErrInvalidCustomerID = errors.New("invalid customer id")
)

package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest    = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrInvalidCustomerID = &AppError{http.StatusBadRequest, "INVALID_CUSTOMER_ID", "Customer id must be a positive integer"}
	ErrCustomerNotFound  = &AppError{http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found"}
	ErrProfileNotFound   = &AppError{http.StatusNotFound, "PROFILE_NOT_FOUND", "No profile stored for this customer"}
	ErrInternalError     = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
)

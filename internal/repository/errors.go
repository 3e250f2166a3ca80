package repository

import "errors"

var (
	ErrPartyNotFound        = errors.New("party not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrStatusConflict       = errors.New("order status changed concurrently")
	ErrDuplicateInvoiceNo   = errors.New("invoice number already exists")
	ErrInvoiceAlreadyLinked = errors.New("invoice already has a ledger transaction")
)

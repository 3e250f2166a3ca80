package fixtures

import (
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var (
	AcmeTrading = model.PartyCreateRequest{
		Name:    "Acme Trading",
		Email:   "accounts@acme.test",
		Phone:   "+1 555 0100",
		Address: "12 Harbour Rd",
	}

	NorthwindSupplies = model.PartyCreateRequest{
		Name:  "Northwind Supplies",
		Email: "billing@northwind.test",
	}

	Widget = model.ProductCreateRequest{
		Name:     "Widget",
		Quantity: 5,
		Price:    decimal.RequireFromString("19.99"),
		Category: "hardware",
	}

	Gadget = model.ProductCreateRequest{
		Name:     "Gadget",
		Quantity: 2,
		Price:    decimal.RequireFromString("120.00"),
		Category: "hardware",
	}
)

// Day returns midnight UTC of the given day in March 2024.
func Day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func Debit(partyID int64, amount string, date time.Time) model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		PartyID:     partyID,
		Type:        model.TransactionDebit,
		Amount:      decimal.RequireFromString(amount),
		Description: "sale",
		Date:        date,
	}
}

func Credit(partyID int64, amount string, date time.Time) model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		PartyID:     partyID,
		Type:        model.TransactionCredit,
		Amount:      decimal.RequireFromString(amount),
		Description: "payment",
		Date:        date,
	}
}

func Invoice(partyID *int64, date time.Time, items ...model.InvoiceItemRequest) model.InvoiceCreateRequest {
	return model.InvoiceCreateRequest{
		PartyID: partyID,
		Date:    date,
		Items:   items,
	}
}

func Line(productID int64, quantity int, price, discount string) model.InvoiceItemRequest {
	return model.InvoiceItemRequest{
		ProductID: productID,
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		Discount:  decimal.RequireFromString(discount),
	}
}

func Order(partyID int64, items ...model.OrderItem) model.OrderCreateRequest {
	return model.OrderCreateRequest{PartyID: partyID, Items: items}
}

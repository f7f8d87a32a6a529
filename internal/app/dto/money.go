package dto

import "hotelops/internal/domain/shared/money"

// MoneyDTO renders an amount both as a decimal string and in minor units.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Minor    int64  `json:"amount_minor"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Decimal(),
		Minor:    value.Amount,
		Currency: value.Currency,
	}
}

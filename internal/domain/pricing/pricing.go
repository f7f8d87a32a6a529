package pricing

import (
	"errors"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
)

// Quote is the only pricing rule the front desk uses: nights times the room
// type's base price captured at booking time.
func Quote(rt inventory.RoomType, dr daterange.DateRange) (money.Money, error) {
	if err := dr.Validate(); err != nil {
		return money.Money{}, err
	}
	if rt.BasePrice.Currency == "" {
		return money.Money{}, ErrCurrencyUnset
	}
	return rt.BasePrice.Multiply(int64(dr.Nights())), nil
}

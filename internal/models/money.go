package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MoneyScale is the number of fractional digits every amount is kept at.
const MoneyScale = 2

// Money is a fixed-point amount rounded half-up to two decimals. It encodes
// as a JSON number and as a BSON Decimal128.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(MoneyScale)}
}

func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.amount = d.Round(MoneyScale)
	return nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.String())
	if err != nil {
		return 0, nil, fmt.Errorf("encode money: %w", err)
	}
	return bson.MarshalValue(d128)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	var d decimal.Decimal
	switch t {
	case bsontype.Decimal128:
		parsed, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return fmt.Errorf("decode money: %w", err)
		}
		d = parsed
	case bsontype.Double:
		d = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		d = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		d = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		parsed, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return fmt.Errorf("decode money: %w", err)
		}
		d = parsed
	case bsontype.Null, bsontype.Undefined:
		d = decimal.Zero
	default:
		return fmt.Errorf("decode money: unsupported bson type %s", t)
	}

	m.amount = d.Round(MoneyScale)
	return nil
}

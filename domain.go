package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// DateTimeLayout is the ISO-8601 local date-time used on the wire.
const DateTimeLayout = "2006-01-02T15:04:05"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

type User struct {
	Id       int64
	Username string
	Email    string
	Password string
}

type Transaction struct {
	Id          int64
	Type        string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Category    string
	UserId      int64
}

// TransactionFilter narrows a user's transactions. Zero fields are ignored.
type TransactionFilter struct {
	UserId   int64
	Type     string // substring, case-sensitive
	Category string // exact
	Start    *time.Time
	End      *time.Time
}

// DateTime is a timestamp encoded as DateTimeLayout in JSON.
type DateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04",
}

// ParseDateTime accepts DateTimeLayout, RFC 3339 and minute precision.
// Values without a zone are read as UTC.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date-time %q, expected %s", ErrValidation, s, DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity names a table whose rows emit change events.
type Entity string

const (
	EntityMoment Entity = "moment"
	EntityMoney  Entity = "money"
)

// Op names the mutation that produced a change event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (e Entity) IsValid() bool {
	return e == EntityMoment || e == EntityMoney
}

func (o Op) IsValid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// ChangeEntry is one line of the change mirror. Kind carries the moment
// category or the money type; Amount carries cost or amount.
type ChangeEntry struct {
	At       time.Time
	Entity   Entity
	Op       Op
	ID       int64
	Title    string
	Kind     string
	Amount   decimal.Decimal
	Currency string
	Date     string
}

// MomentChange builds the mirror entry for the current state of a moment.
func MomentChange(op Op, at time.Time, m Moment) ChangeEntry {
	return ChangeEntry{
		At:       at,
		Entity:   EntityMoment,
		Op:       op,
		ID:       m.ID,
		Title:    m.Title,
		Kind:     m.Category,
		Amount:   m.Cost,
		Currency: m.Currency,
		Date:     m.Date,
	}
}

// MoneyChange builds the mirror entry for the current state of a money record.
func MoneyChange(op Op, at time.Time, r MoneyRecord) ChangeEntry {
	return ChangeEntry{
		At:       at,
		Entity:   EntityMoney,
		Op:       op,
		ID:       r.ID,
		Title:    r.Title,
		Kind:     r.Type,
		Amount:   r.Amount,
		Currency: r.Currency,
		Date:     r.Date,
	}
}

// Tombstone builds the mirror entry for a deleted row.
func Tombstone(entity Entity, at time.Time, id int64) ChangeEntry {
	return ChangeEntry{At: at, Entity: entity, Op: OpDelete, ID: id}
}

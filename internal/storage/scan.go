package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// timestamp scans DATETIME columns whether the driver hands back a
// time.Time or the raw CURRENT_TIMESTAMP text.
type timestamp struct {
	time.Time
}

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.Time = time.Time{}
		return nil
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case int64:
		ts.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// number scans REAL and INTEGER columns, including SUM and AVG results,
// into a decimal. SQLite yields ±Inf when a sum overflows; that is an error
// here rather than a value.
type number struct {
	decimal.Decimal
}

func (n *number) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Decimal = decimal.Zero
		return nil
	case int64:
		n.Decimal = decimal.NewFromInt(v)
		return nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("non-finite numeric value %v", v)
		}
		n.Decimal = decimal.NewFromFloat(v)
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("unsupported numeric type %T", src)
	}
}

func (n *number) parse(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("unrecognized number %q", s)
	}
	n.Decimal = d
	return nil
}

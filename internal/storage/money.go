package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

const moneyColumns = `id, type, title, COALESCE(amount, 0), COALESCE(currency, 'USD'), date,
	timestamp, created_at, updated_at`

// MoneyRepository reads and writes the money table.
type MoneyRepository struct {
	db *sql.DB
}

func NewMoneyRepository(s *Store) *MoneyRepository {
	return &MoneyRepository{db: s.db}
}

func scanMoney(row rowScanner) (core.MoneyRecord, error) {
	var (
		rec                  core.MoneyRecord
		amount               number
		ts, created, updated timestamp
	)
	err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &amount, &rec.Currency, &rec.Date,
		&ts, &created, &updated)
	if err != nil {
		return core.MoneyRecord{}, err
	}
	rec.Amount = amount.Decimal
	rec.Timestamp = ts.Time
	rec.CreatedAt = created.Time
	rec.UpdatedAt = updated.Time
	return rec, nil
}

func (r *MoneyRepository) queryRecords(ctx context.Context, op, query string, args ...any) ([]core.MoneyRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	records := make([]core.MoneyRecord, 0)
	for rows.Next() {
		rec, err := scanMoney(rows)
		if err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return records, nil
}

func (r *MoneyRepository) Create(ctx context.Context, in core.MoneyInput) (core.MoneyRecord, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return core.MoneyRecord{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO money (type, title, amount, currency, date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+moneyColumns,
		in.Type, in.Title, in.Amount.InexactFloat64(), in.Currency, in.Date)

	rec, err := scanMoney(row)
	if err != nil {
		return core.MoneyRecord{}, &core.StoreError{Op: "create money record", Err: err}
	}

	slog.InfoContext(ctx, "Money record saved",
		"id", rec.ID,
		"type", rec.Type,
		"amount", rec.Amount.String(),
		"currency", rec.Currency,
		"date", rec.Date)

	return rec, nil
}

func (r *MoneyRepository) List(ctx context.Context) ([]core.MoneyRecord, error) {
	return r.queryRecords(ctx, "list money records",
		`SELECT `+moneyColumns+` FROM money ORDER BY date DESC, id DESC`)
}

func (r *MoneyRepository) ListByType(ctx context.Context, typ string) ([]core.MoneyRecord, error) {
	return r.queryRecords(ctx, "list money records by type",
		`SELECT `+moneyColumns+` FROM money WHERE type = ? ORDER BY date DESC, id DESC`, typ)
}

// ListByDateRange returns records dated within [start, end] inclusive.
func (r *MoneyRepository) ListByDateRange(ctx context.Context, start, end string) ([]core.MoneyRecord, error) {
	return r.queryRecords(ctx, "list money records by date range", `
		SELECT `+moneyColumns+` FROM money
		WHERE date BETWEEN ? AND ?
		ORDER BY date DESC, id DESC`, start, end)
}

func (r *MoneyRepository) SummaryByType(ctx context.Context) ([]core.TypeSummary, error) {
	const op = "money summary by type"

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COUNT(*), SUM(amount) AS total, AVG(amount), COALESCE(currency, 'USD')
		FROM money
		GROUP BY type, currency
		ORDER BY total DESC`)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	summaries := make([]core.TypeSummary, 0)
	for rows.Next() {
		var (
			s              core.TypeSummary
			total, average number
		)
		if err := rows.Scan(&s.Type, &s.Count, &total, &average, &s.Currency); err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		s.Total, s.Average = total.Decimal, average.Decimal
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return summaries, nil
}

func (r *MoneyRepository) Update(ctx context.Context, id int64, in core.MoneyInput) (core.UpdateResult, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return core.UpdateResult{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE money
		SET type = ?, title = ?, amount = ?, currency = ?, date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		in.Type, in.Title, in.Amount.InexactFloat64(), in.Currency, in.Date, id)
	if err != nil {
		return core.UpdateResult{}, &core.StoreError{Op: "update money record", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.UpdateResult{}, &core.StoreError{Op: "update money record", Err: err}
	}

	if n > 0 {
		slog.InfoContext(ctx, "Money record updated", "id", id, "changes", n)
	}
	return core.UpdateResult{ID: id, Changes: n}, nil
}

func (r *MoneyRepository) Delete(ctx context.Context, id int64) (core.DeleteResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM money WHERE id = ?`, id)
	if err != nil {
		return core.DeleteResult{}, &core.StoreError{Op: "delete money record", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.DeleteResult{}, &core.StoreError{Op: "delete money record", Err: err}
	}

	if n > 0 {
		slog.InfoContext(ctx, "Money record deleted", "id", id)
	}
	return core.DeleteResult{ID: id, Deleted: n}, nil
}

// Get returns the record with the given id; found is false when absent.
func (r *MoneyRepository) Get(ctx context.Context, id int64) (core.MoneyRecord, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+moneyColumns+` FROM money WHERE id = ?`, id)
	rec, err := scanMoney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MoneyRecord{}, false, nil
	}
	if err != nil {
		return core.MoneyRecord{}, false, &core.StoreError{Op: "get money record", Err: err}
	}
	return rec, true, nil
}

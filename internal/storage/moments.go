package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

const momentColumns = `id, title, COALESCE(description, ''), date, COALESCE(time, ''),
	COALESCE(category, ''), COALESCE(cost, 0), COALESCE(currency, 'USD'), created_at, updated_at`

// MomentRepository reads and writes the moments table.
type MomentRepository struct {
	db *sql.DB
}

func NewMomentRepository(s *Store) *MomentRepository {
	return &MomentRepository{db: s.db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMoment(row rowScanner) (core.Moment, error) {
	var (
		m                core.Moment
		cost             number
		created, updated timestamp
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Date, &m.Time,
		&m.Category, &cost, &m.Currency, &created, &updated)
	if err != nil {
		return core.Moment{}, err
	}
	m.Cost = cost.Decimal
	m.CreatedAt = created.Time
	m.UpdatedAt = updated.Time
	return m, nil
}

func (r *MomentRepository) queryMoments(ctx context.Context, op, query string, args ...any) ([]core.Moment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	moments := make([]core.Moment, 0)
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		moments = append(moments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return moments, nil
}

// Create inserts a moment and returns the stored row with its generated id
// and timestamps.
func (r *MomentRepository) Create(ctx context.Context, in core.MomentInput) (core.Moment, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return core.Moment{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO moments (title, description, date, time, category, cost, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+momentColumns,
		in.Title, in.Description, in.Date, in.Time, in.Category, in.Cost.InexactFloat64(), in.Currency)

	m, err := scanMoment(row)
	if err != nil {
		return core.Moment{}, &core.StoreError{Op: "create moment", Err: err}
	}

	slog.InfoContext(ctx, "Moment saved",
		"id", m.ID,
		"title", m.Title,
		"date", m.Date,
		"cost", m.Cost.String(),
		"currency", m.Currency)

	return m, nil
}

// List returns every moment, newest date first.
func (r *MomentRepository) List(ctx context.Context) ([]core.Moment, error) {
	return r.queryMoments(ctx, "list moments",
		`SELECT `+momentColumns+` FROM moments ORDER BY date DESC, time DESC, id DESC`)
}

func (r *MomentRepository) ListByDate(ctx context.Context, date string) ([]core.Moment, error) {
	return r.queryMoments(ctx, "list moments by date",
		`SELECT `+momentColumns+` FROM moments WHERE date = ? ORDER BY time DESC, id DESC`, date)
}

func (r *MomentRepository) ListByCategory(ctx context.Context, category string) ([]core.Moment, error) {
	return r.queryMoments(ctx, "list moments by category",
		`SELECT `+momentColumns+` FROM moments WHERE category = ? ORDER BY date DESC, time DESC, id DESC`, category)
}

// Get returns the moment with the given id. found is false when no such
// row exists; that is not an error.
func (r *MomentRepository) Get(ctx context.Context, id int64) (core.Moment, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+momentColumns+` FROM moments WHERE id = ?`, id)
	m, err := scanMoment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Moment{}, false, nil
	}
	if err != nil {
		return core.Moment{}, false, &core.StoreError{Op: "get moment", Err: err}
	}
	return m, true, nil
}

// Update overwrites every mutable field of the moment. Changes is 0 when
// the id does not exist.
func (r *MomentRepository) Update(ctx context.Context, id int64, in core.MomentInput) (core.UpdateResult, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return core.UpdateResult{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE moments
		SET title = ?, description = ?, date = ?, time = ?, category = ?, cost = ?, currency = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		in.Title, in.Description, in.Date, in.Time, in.Category, in.Cost.InexactFloat64(), in.Currency, id)
	if err != nil {
		return core.UpdateResult{}, &core.StoreError{Op: "update moment", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.UpdateResult{}, &core.StoreError{Op: "update moment", Err: err}
	}

	if n > 0 {
		slog.InfoContext(ctx, "Moment updated", "id", id, "changes", n)
	}
	return core.UpdateResult{ID: id, Changes: n}, nil
}

func (r *MomentRepository) Delete(ctx context.Context, id int64) (core.DeleteResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM moments WHERE id = ?`, id)
	if err != nil {
		return core.DeleteResult{}, &core.StoreError{Op: "delete moment", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.DeleteResult{}, &core.StoreError{Op: "delete moment", Err: err}
	}

	if n > 0 {
		slog.InfoContext(ctx, "Moment deleted", "id", id)
	}
	return core.DeleteResult{ID: id, Deleted: n}, nil
}

// ListExpensesInRange returns moments with a positive cost whose date falls
// within [start, end], compared as text.
func (r *MomentRepository) ListExpensesInRange(ctx context.Context, start, end string) ([]core.Moment, error) {
	return r.queryMoments(ctx, "list expenses in range", `
		SELECT `+momentColumns+` FROM moments
		WHERE cost > 0 AND date BETWEEN ? AND ?
		ORDER BY date DESC, time DESC, id DESC`, start, end)
}

func (r *MomentRepository) ExpenseSummaryByCategory(ctx context.Context) ([]core.CategorySummary, error) {
	const op = "expense summary by category"

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), COUNT(*), SUM(cost) AS total, AVG(cost), COALESCE(currency, 'USD')
		FROM moments
		WHERE cost > 0
		GROUP BY category, currency
		ORDER BY total DESC`)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	summaries := make([]core.CategorySummary, 0)
	for rows.Next() {
		var (
			s              core.CategorySummary
			total, average number
		)
		if err := rows.Scan(&s.Category, &s.Count, &total, &average, &s.Currency); err != nil {
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

// TotalExpenses sums the cost of all moments per currency. Currencies are
// never summed together.
func (r *MomentRepository) TotalExpenses(ctx context.Context) ([]core.CurrencyTotal, error) {
	const op = "total expenses"

	rows, err := r.db.QueryContext(ctx, `
		SELECT SUM(cost) AS total, COALESCE(currency, 'USD')
		FROM moments
		WHERE cost > 0
		GROUP BY currency
		ORDER BY total DESC`)
	if err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	totals := make([]core.CurrencyTotal, 0)
	for rows.Next() {
		var (
			t     core.CurrencyTotal
			total number
		)
		if err := rows.Scan(&total, &t.Currency); err != nil {
			return nil, &core.StoreError{Op: op, Err: err}
		}
		t.Total = total.Decimal
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: op, Err: err}
	}
	return totals, nil
}

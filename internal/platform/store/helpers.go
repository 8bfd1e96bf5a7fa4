package store

import (
	"context"
	"fmt"
	"strings"
)

// maxParams is the postgres limit on bind parameters per statement
const maxParams = 65535

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var zero T
	r := q.QueryRow(ctx, sql, args...)
	var v T
	if err := r.Scan(&v); err != nil {
		return zero, err
	}
	return v, nil
}

// Many uses a custom scanner to map all rows into []T
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	r := &rowFromRows{rows: rows}
	for rows.Next() {
		item, err := scan(r)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// rowFromRows gives a Row facade over a current Rows position
type rowFromRows struct{ rows Rows }

func (r *rowFromRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }

// Insert describes a multi row INSERT. Suffix is appended to every statement,
// typically an ON CONFLICT clause
type Insert struct {
	Table   string
	Columns []string
	Suffix  string
}

// InsertValues writes rows with as few statements as the parameter limit allows and
// returns the number of rows affected. Every row must have one value per column
func InsertValues(ctx context.Context, q RowQuerier, ins Insert, rows [][]any) (int64, error) {
	width := len(ins.Columns)
	if width == 0 {
		return 0, fmt.Errorf("insert into %s: no columns", ins.Table)
	}
	per := maxParams / width

	var affected int64
	for start := 0; start < len(rows); start += per {
		chunk := rows[start:min(start+per, len(rows))]
		sql, args, err := ins.build(chunk)
		if err != nil {
			return affected, err
		}
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

func (ins Insert) build(rows [][]any) (string, []any, error) {
	width := len(ins.Columns)
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + ins.Table + " (" + strings.Join(ins.Columns, ", ") + ") VALUES ")

	args := make([]any, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return "", nil, fmt.Errorf("insert into %s: row %d has %d values, want %d", ins.Table, i, len(r), width)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j := range r {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", len(args)+j+1)
		}
		sb.WriteByte(')')
		args = append(args, r...)
	}
	if ins.Suffix != "" {
		sb.WriteString(" " + ins.Suffix)
	}
	return sb.String(), args, nil
}

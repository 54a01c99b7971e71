package storage

import (
	"database/sql"
	"fmt"
)

// ScanRows materialises a database/sql result. []byte values are converted to
// string so results compare the same across drivers.
func ScanRows(rows *sql.Rows) (ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return ResultSet{}, fmt.Errorf("columns: %w", err)
	}
	rs := ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return ResultSet{}, fmt.Errorf("scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("rows: %w", err)
	}
	return rs, nil
}

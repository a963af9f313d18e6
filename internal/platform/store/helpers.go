package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Scalar reads the first column of the first row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// StructsByName scans every row into T. Columns bind to exported fields by
// `db` tag or, lacking one, by case-insensitive field name; columns with no
// field are read and dropped. Fields tagged `db:"-"` never bind
func StructsByName[T any](ctx context.Context, q RowQuerier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := columnFields(reflect.TypeFor[T](), rows.Columns())
	var out []T
	for rows.Next() {
		var item T
		if err := rows.Scan(scanTargets(reflect.ValueOf(&item).Elem(), fields)...); err != nil {
			return nil, fmt.Errorf("scan %T: %w", item, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// columnFields maps each column position to a field index of t, -1 for none
func columnFields(t reflect.Type, cols []string) []int {
	byName := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		byName[strings.ToLower(name)] = i
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := byName[strings.ToLower(c)]
		if !ok {
			j = -1
		}
		idx[i] = j
	}
	return idx
}

func scanTargets(v reflect.Value, fields []int) []any {
	dst := make([]any, len(fields))
	for i, j := range fields {
		if j < 0 {
			dst[i] = new(any)
			continue
		}
		dst[i] = v.Field(j).Addr().Interface()
	}
	return dst
}

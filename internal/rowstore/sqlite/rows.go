package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snipspace/internal/rowstore"
)

var _ rowstore.Client = (*Store)(nil)

// collectionSpec describes one table: its column set and which generated
// fields the store assigns on insert.
type collectionSpec struct {
	columns   []string
	jsonCols  map[string]bool // stored as JSON text, surfaced as []any
	assignID  bool
	createdAt bool
	updatedAt bool
}

var collections = map[string]collectionSpec{
	"users": {
		columns:   []string{"id", "email", "display_name", "password_hash", "created_at"},
		assignID:  true,
		createdAt: true,
	},
	"snippets": {
		columns: []string{"id", "user_id", "title", "description", "code", "language",
			"tags", "is_public", "is_pinned", "created_at", "updated_at"},
		jsonCols:  map[string]bool{"tags": true},
		assignID:  true,
		createdAt: true,
		updatedAt: true,
	},
	"folders": {
		columns:   []string{"id", "user_id", "name", "description", "created_at"},
		assignID:  true,
		createdAt: true,
	},
	"snippet_folders": {
		columns: []string{"snippet_id", "folder_id"},
	},
}

func (s *Store) Select(ctx context.Context, q rowstore.Query) ([]rowstore.Row, error) {
	spec, err := specFor("select", q.Collection)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhere(q.Collection, spec, q.Filter)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + strings.Join(spec.columns, ", ") + " FROM " + q.Collection + where
	if q.Order != nil {
		if !spec.hasColumn(q.Order.Field) {
			return nil, badRequest("select", q.Collection, "unknown order field "+q.Order.Field)
		}
		query += " ORDER BY " + q.Order.Field
		if q.Order.Descending {
			query += " DESC"
		}
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("select", q.Collection, err)
	}
	defer rows.Close()

	var out []rowstore.Row
	for rows.Next() {
		dest := make([]any, len(spec.columns))
		ptrs := make([]any, len(spec.columns))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storeError("select", q.Collection, err)
		}

		row := make(rowstore.Row, len(spec.columns))
		for i, col := range spec.columns {
			row[col] = normalizeValue(spec, col, dest[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("select", q.Collection, err)
	}
	if out == nil {
		out = []rowstore.Row{}
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, collection string, record rowstore.Row) (rowstore.Row, error) {
	spec, err := specFor("insert", collection)
	if err != nil {
		return nil, err
	}
	for field := range record {
		if !spec.hasColumn(field) {
			return nil, badRequest("insert", collection, "unknown column "+field)
		}
	}

	// The store owns ID and timestamp assignment, mirroring the hosted
	// store's column defaults.
	stored := make(rowstore.Row, len(record)+3)
	for k, v := range record {
		stored[k] = v
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if spec.assignID {
		if _, ok := stored["id"]; !ok {
			stored["id"] = xid.New().String()
		}
	}
	if spec.createdAt {
		if _, ok := stored["created_at"]; !ok {
			stored["created_at"] = now
		}
	}
	if spec.updatedAt {
		if _, ok := stored["updated_at"]; !ok {
			stored["updated_at"] = now
		}
	}

	cols := make([]string, 0, len(stored))
	placeholders := make([]string, 0, len(stored))
	args := make([]any, 0, len(stored))
	for _, col := range spec.columns {
		v, ok := stored[col]
		if !ok {
			continue
		}
		sv, err := storageValue(spec, col, v)
		if err != nil {
			return nil, badRequest("insert", collection, err.Error())
		}
		cols = append(cols, col)
		placeholders = append(placeholders, "?")
		args = append(args, sv)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		collection, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &rowstore.RemoteError{
				Op: "insert", Collection: collection,
				Code: http.StatusConflict, Message: err.Error(), Err: err,
			}
		}
		return nil, storeError("insert", collection, err)
	}

	// Echo the stored row back the way the REST dialect does with
	// Prefer: return=representation.
	if spec.assignID {
		got, err := s.Select(ctx, rowstore.Query{
			Collection: collection,
			Filter:     rowstore.Eq("id", stored["id"]),
		})
		if err != nil {
			return nil, err
		}
		if len(got) == 1 {
			return got[0], nil
		}
	}
	return stored, nil
}

func (s *Store) Update(ctx context.Context, collection string, f rowstore.Filter, patch rowstore.Row) error {
	spec, err := specFor("update", collection)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return badRequest("update", collection, "empty patch")
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for _, col := range spec.columns {
		v, ok := patch[col]
		if !ok {
			continue
		}
		sv, err := storageValue(spec, col, v)
		if err != nil {
			return badRequest("update", collection, err.Error())
		}
		sets = append(sets, col+" = ?")
		args = append(args, sv)
	}
	if len(sets) != len(patch) {
		return badRequest("update", collection, "patch contains unknown columns")
	}

	where, whereArgs, err := buildWhere(collection, spec, f)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + collection + " SET " + strings.Join(sets, ", ") + where
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return storeError("update", collection, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, f rowstore.Filter) error {
	spec, err := specFor("delete", collection)
	if err != nil {
		return err
	}
	where, args, err := buildWhere(collection, spec, f)
	if err != nil {
		return err
	}
	if where == "" {
		// Refuse unfiltered deletes; the contract never issues one.
		return badRequest("delete", collection, "refusing delete without filter")
	}

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM "+collection+where, args...); err != nil {
		return storeError("delete", collection, err)
	}
	return nil
}

func (spec collectionSpec) hasColumn(name string) bool {
	for _, c := range spec.columns {
		if c == name {
			return true
		}
	}
	return false
}

func specFor(op, collection string) (collectionSpec, error) {
	spec, ok := collections[collection]
	if !ok {
		return collectionSpec{}, badRequest(op, collection, "unknown collection")
	}
	return spec, nil
}

func buildWhere(collection string, spec collectionSpec, f rowstore.Filter) (string, []any, error) {
	var conds []string
	var args []any

	for _, col := range spec.columns {
		if v, ok := f.Equals[col]; ok {
			sv, err := storageValue(spec, col, v)
			if err != nil {
				return "", nil, badRequest("filter", collection, err.Error())
			}
			conds = append(conds, col+" = ?")
			args = append(args, sv)
		}
		if vs, ok := f.In[col]; ok {
			placeholders := make([]string, 0, len(vs))
			for _, v := range vs {
				sv, err := storageValue(spec, col, v)
				if err != nil {
					return "", nil, badRequest("filter", collection, err.Error())
				}
				placeholders = append(placeholders, "?")
				args = append(args, sv)
			}
			if len(placeholders) == 0 {
				// Empty membership set matches nothing.
				conds = append(conds, "1 = 0")
			} else {
				conds = append(conds, col+" IN ("+strings.Join(placeholders, ", ")+")")
			}
		}
	}

	if len(conds) != len(f.Equals)+len(f.In) {
		return "", nil, badRequest("filter", collection, "filter references unknown columns")
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// storageValue converts a row value into its SQLite representation:
// booleans become integers, JSON columns become serialized text.
func storageValue(spec collectionSpec, col string, v any) (any, error) {
	if spec.jsonCols[col] {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", col, err)
		}
		return string(data), nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case string, int, int64, float64, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("column %s: unsupported value type %T", col, v)
	}
}

// normalizeValue converts a scanned SQLite value into the JSON-shaped form
// rows carry everywhere else.
func normalizeValue(spec collectionSpec, col string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if spec.jsonCols[col] {
		if s, ok := v.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	}
	return v
}

func badRequest(op, collection, msg string) *rowstore.RemoteError {
	return &rowstore.RemoteError{
		Op: op, Collection: collection,
		Code: http.StatusBadRequest, Message: msg,
	}
}

func storeError(op, collection string, err error) *rowstore.RemoteError {
	return &rowstore.RemoteError{
		Op: op, Collection: collection,
		Message: err.Error(), Err: err,
	}
}

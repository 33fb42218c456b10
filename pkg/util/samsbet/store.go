package samsbet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/SammMarshall/samsbet/internal/logger"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by primary key matches nothing
var ErrNotFound = errors.New("record not found")

// Persistable interface defines methods that persistent objects must implement.
// Columns come from struct tags: `column`, `dbtype`, `primary` and `index`.
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
	BeforeSave() error
	AfterSave() error
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists analysis runs in sqlite
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path and makes sure
// every table exists. ":memory:" gives a throwaway database.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a memory database only lives as long as its single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	for _, obj := range []Persistable{&AnalysisRun{}, &StatSnapshot{}, &H2HSnapshot{}} {
		if err := s.CreateTable(ctx, obj); err != nil {
			db.Close()
			return nil, err
		}
	}
	logger.Info("Database initialized successfully", path)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTable creates a table for the given persistable object using struct tags
func (s *Store) CreateTable(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)
	logger.Debug("Creating table with SQL", createSQL)

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	for _, query := range generateIndexSQL(obj, tableName) {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// column describes one persisted struct field
type column struct {
	name    string
	dbType  string
	primary bool
	index   bool
	field   int
}

// columnsOf lists the persisted fields of obj in declaration order
func columnsOf(obj any) []column {
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}
	var cols []column
	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !field.IsExported() || field.Tag.Get("db") == "-" {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := field.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		cols = append(cols, column{
			name:    name,
			dbType:  dbType,
			primary: field.Tag.Get("primary") == "true",
			index:   field.Tag.Get("index") != "",
			field:   i,
		})
	}
	return cols
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj any, tableName string) string {
	var defs, primaryKeys []string
	for _, c := range columnsOf(obj) {
		defs = append(defs, fmt.Sprintf("%s %s", c.name, c.dbType))
		if c.primary {
			primaryKeys = append(primaryKeys, c.name)
		}
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(defs, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj any, tableName string) []string {
	var out []string
	for _, c := range columnsOf(obj) {
		if c.index {
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", tableName, c.name, tableName, c.name))
		}
	}
	return out
}

// Save persists the object (INSERT or UPDATE)
func (s *Store) Save(ctx context.Context, obj Persistable) error {
	return save(ctx, s.db, obj)
}

func save(ctx context.Context, ex execer, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}
	exists, err := exists(ctx, ex, obj)
	if err != nil {
		return err
	}
	if exists {
		err = update(ctx, ex, obj)
	} else {
		err = insert(ctx, ex, obj)
	}
	if err != nil {
		return err
	}
	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}
	return nil
}

func insert(ctx context.Context, ex execer, obj Persistable) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var names, placeholders []string
	var values []any
	for _, c := range columnsOf(obj) {
		names = append(names, c.name)
		placeholders = append(placeholders, "?")
		values = append(values, v.Field(c.field).Interface())
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		obj.GetTableName(), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	logger.Debug("Insert SQL", query)

	if _, err := ex.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", obj.GetTableName(), err)
	}
	return nil
}

func update(ctx context.Context, ex execer, obj Persistable) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var setPairs []string
	var values []any
	for _, c := range columnsOf(obj) {
		if c.primary {
			continue
		}
		setPairs = append(setPairs, c.name+" = ?")
		values = append(values, v.Field(c.field).Interface())
	}
	if len(setPairs) == 0 {
		return nil
	}
	where, whereValues := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", obj.GetTableName(), strings.Join(setPairs, ", "), where)
	logger.Debug("Update SQL", query)

	if _, err := ex.ExecContext(ctx, query, append(values, whereValues...)...); err != nil {
		return fmt.Errorf("failed to update %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// Exists checks if the object exists in the database
func (s *Store) Exists(ctx context.Context, obj Persistable) (bool, error) {
	return exists(ctx, s.db, obj)
}

func exists(ctx context.Context, ex execer, obj Persistable) (bool, error) {
	where, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", obj.GetTableName(), where)
	var count int
	if err := ex.QueryRowContext(ctx, query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", obj.GetTableName(), err)
	}
	return count > 0, nil
}

// Delete removes the object from the database
func (s *Store) Delete(ctx context.Context, obj Persistable) error {
	where, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", obj.GetTableName(), where)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// DeleteWhere removes every row of obj's table matching the clause
func (s *Store) DeleteWhere(ctx context.Context, obj Persistable, whereClause string, args ...any) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", obj.GetTableName(), whereClause)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", obj.GetTableName(), err)
	}
	return res.RowsAffected()
}

// FindByPrimaryKey loads obj from the row matching primaryKey
func (s *Store) FindByPrimaryKey(ctx context.Context, obj Persistable, primaryKey map[string]any) error {
	names, destinations := selectData(obj)
	where, values := buildWhereClause(primaryKey)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), obj.GetTableName(), where)
	logger.Debug("FindByPrimaryKey SQL", query)

	err := s.db.QueryRowContext(ctx, query, values...).Scan(destinations...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w in %s", ErrNotFound, obj.GetTableName())
	}
	if err != nil {
		return fmt.Errorf("failed to scan row from %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// FindAll retrieves every row of T's table
func FindAll[T any, PT interface {
	*T
	Persistable
}](ctx context.Context, s *Store) ([]*T, error) {
	return FindWhere[T, PT](ctx, s, "1 = 1")
}

// FindWhere retrieves the rows of T's table matching a custom WHERE clause
func FindWhere[T any, PT interface {
	*T
	Persistable
}](ctx context.Context, s *Store, whereClause string, args ...any) ([]*T, error) {
	var proto PT = new(T)
	names, _ := selectData(proto)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), proto.GetTableName(), whereClause)
	logger.Debug("FindWhere SQL", query)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", proto.GetTableName(), err)
	}
	defer rows.Close()

	var results []*T
	for rows.Next() {
		obj := new(T)
		_, destinations := selectData(obj)
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", proto.GetTableName(), err)
		}
		results = append(results, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", proto.GetTableName(), err)
	}
	return results, nil
}

// selectData returns the column names and scan destinations of obj
func selectData(obj any) ([]string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var names []string
	var destinations []any
	for _, c := range columnsOf(obj) {
		names = append(names, c.name)
		destinations = append(destinations, v.Field(c.field).Addr().Interface())
	}
	return names, destinations
}

// BulkSave saves multiple objects in one transaction
func (s *Store) BulkSave(ctx context.Context, objects []Persistable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := save(ctx, tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildWhereClause builds a WHERE clause from a primary key map, columns in
// sorted order so the generated SQL is stable
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	keys := make([]string, 0, len(primaryKey))
	for k := range primaryKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, k+" = ?")
		values = append(values, primaryKey[k])
	}
	return strings.Join(conditions, " AND "), values
}

package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Product{},
		&Variety{},
		&VarietyImage{},
		&StockChange{},
		&Project{},
		&ProjectModerator{},
		&Activity{},
		&Application{},
		&Feedback{},
		&Report{},
		&Transaction{},
	)
}

type txKey struct{}

// Transactor runs units of work on one database transaction carried in the
// context. Every DAO call made with that context joins it.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{
		db: db,
	}
}

func (t *Transactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translate classifies a database error. Constraint names end up in the
// message only.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, err, "%s not found", msg)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Wrap(apperr.KindConflict, err, "%s already exists (%s)", msg, pgErr.ConstraintName)
		case pgerrcode.CheckViolation, pgerrcode.ForeignKeyViolation, pgerrcode.NotNullViolation, pgerrcode.RestrictViolation:
			return apperr.Wrap(apperr.KindIntegrity, err, "%s violates %s", msg, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s -> %w", msg, err)
}

func notFoundUnlessAffected(result *gorm.DB, format string, args ...any) error {
	if result.Error != nil {
		return translate(result.Error, format, args...)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("%s not found", fmt.Sprintf(format, args...))
	}
	return nil
}

// Package store persists cases, attachments and payments with gorm.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("case status changed concurrently")
	ErrNotEditable    = errors.New("case is submitted")
)

// Scope restricts lookups to the cases a caller may reach. Staff scopes see
// every case; other scopes only their owner's.
type Scope struct {
	UserID uint
	Staff  bool
}

func (s Scope) apply(q *gorm.DB, column string) *gorm.DB {
	if s.Staff {
		return q
	}
	return q.Where(column+" = ?", s.UserID)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Tx runs fn in a transaction, handing it stores bound to it.
func Tx(ctx context.Context, db *gorm.DB, fn func(cases *CaseStore, attachments *AttachmentStore, payments *PaymentStore) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewCaseStore(tx), NewAttachmentStore(tx), NewPaymentStore(tx))
	})
}

// Package repository declares the persistence ports of the domain.
package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrPreconditionFailed reports a conditional write that matched no row.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrReferenced reports a delete blocked by rows that still point at the record.
	ErrReferenced = errors.New("record still referenced")
)

// TxManager runs fn inside one transaction. Repositories called with the
// context handed to fn take part in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

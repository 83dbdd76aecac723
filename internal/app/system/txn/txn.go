// internal/app/system/txn/txn.go
// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one (replica set), and falls back to sequential
// writes on a standalone mongod. Callers therefore write every multi-step
// sequence to tolerate a crash between steps: partial completion must
// leave the system valid, if incomplete.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn, using a transaction when available. On servers that do
// not support transactions it logs once and runs fn directly.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Debug("transactions unavailable, running writes sequentially", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unavailable, running writes sequentially", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, old wire version).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20 IllegalOperation, 51 sessions unsupported, 263 OperationNotSupportedInTransaction
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}

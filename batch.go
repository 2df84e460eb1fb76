package kvidx

import "context"

// BatchOp is one write to apply inside a BatchInsert transaction.
type BatchOp struct {
	ID   uint64
	Term uint64
	Cmd  uint64
	Data []byte
	Cond Condition
}

// BatchInsert applies ops as a single transaction: Begin, InsertEx for
// each op in order, Commit. On any failure the transaction is aborted
// and the error from the failing op is returned, leaving none of ops
// applied.
//
// Grounded on ry256-slb/internal/db/db.go's DB.Transaction, adapted from
// "run one caller callback inside a *sql.Tx" to "apply one batch of
// InsertEx calls inside an Instance's own Begin/Commit/Abort", since the
// façade never exposes the raw *sql.Tx a kvstore.Backend works with.
func (inst *Instance) BatchInsert(ctx context.Context, ops []BatchOp) (err error) {
	if err := inst.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			inst.Abort(ctx)
			panic(p)
		}
	}()

	for _, op := range ops {
		if err = inst.InsertEx(ctx, op.ID, op.Term, op.Cmd, op.Data, op.Cond); err != nil {
			inst.Abort(ctx)
			return err
		}
	}

	return inst.Commit(ctx)
}

package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	erDupEntry           = 1062
	erWarnDataOutOfRange = 1264
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
	erRowIsReferenced    = 1451
	erNoReferencedRow    = 1452
	erCheckConstraintErr = 3819
)

func errorNumber(err error) (uint16, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}

func IsDuplicateKey(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == erDupEntry
}

// IsRowReferenced reports a RESTRICT foreign key blocking a delete.
func IsRowReferenced(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == erRowIsReferenced
}

// IsMissingParent reports an insert whose foreign key target does not exist.
func IsMissingParent(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == erNoReferencedRow
}

// IsOutOfRange reports a value too large for its column in strict mode.
func IsOutOfRange(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == erWarnDataOutOfRange
}

func IsCheckViolation(err error) bool {
	n, ok := errorNumber(err)
	return ok && n == erCheckConstraintErr
}

// IsDeadlock covers both deadlock victims and lock wait timeouts; either one
// rolls the statement back and the transaction can be retried.
func IsDeadlock(err error) bool {
	n, ok := errorNumber(err)
	return ok && (n == erLockDeadlock || n == erLockWaitTimeout)
}

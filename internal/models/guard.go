package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Messages raised by the completed-project triggers. Clients show them as-is.
const (
	MsgInsertLocked = "Cannot add tasks to a completed project."
	MsgUpdateLocked = "Cannot modify tasks of a completed project."
	MsgDeleteLocked = "Cannot delete tasks of a completed project."
)

var guardMessages = []string{MsgInsertLocked, MsgUpdateLocked, MsgDeleteLocked}

const (
	mysqlErrDupEntry   = 1062
	mysqlErrSignal     = 1644
	pgUniqueViolation  = "23505"
	pgRaiseException   = "P0001"
	sqliteUniqueFailed = "UNIQUE constraint failed"
)

// GuardOptions selects which task mutations the completed-project guard covers.
// Inserts and updates are always covered.
type GuardOptions struct {
	GuardDelete bool
}

type trigger struct {
	name    string
	event   string // INSERT, UPDATE, DELETE
	row     string // NEW or OLD
	message string
}

func guardTriggers() []trigger {
	return []trigger{
		{name: "trg_tasks_guard_insert", event: "INSERT", row: "NEW", message: MsgInsertLocked},
		// The update guard looks at the project the task belongs to before the
		// update, so moving a task out of a completed project is also refused.
		{name: "trg_tasks_guard_update", event: "UPDATE", row: "OLD", message: MsgUpdateLocked},
		{name: "trg_tasks_guard_delete", event: "DELETE", row: "OLD", message: MsgDeleteLocked},
	}
}

// InstallTaskGuards (re)creates the completed-project triggers on tasks for
// the connected dialect. It is idempotent. With GuardDelete off, any delete
// trigger left from an earlier run is dropped.
func InstallTaskGuards(db *gorm.DB, opts GuardOptions) error {
	dialect := db.Dialector.Name()
	for _, t := range guardTriggers() {
		if err := dropTrigger(db, dialect, t); err != nil {
			return fmt.Errorf("drop %s: %w", t.name, err)
		}
		if t.event == "DELETE" && !opts.GuardDelete {
			continue
		}
		if err := createTrigger(db, dialect, t); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
	}
	return nil
}

func dropTrigger(db *gorm.DB, dialect string, t trigger) error {
	switch dialect {
	case "postgres":
		return db.Exec(fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON tasks", t.name)).Error
	default:
		return db.Exec(fmt.Sprintf("DROP TRIGGER IF EXISTS %s", t.name)).Error
	}
}

func createTrigger(db *gorm.DB, dialect string, t trigger) error {
	cond := fmt.Sprintf("(SELECT status FROM projects WHERE project_id = %s.project_id) = '%s'",
		t.row, ProjectCompleted)

	switch dialect {
	case "mysql":
		return db.Exec(fmt.Sprintf(`CREATE TRIGGER %s BEFORE %s ON tasks FOR EACH ROW
BEGIN
  IF %s THEN
    SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = '%s';
  END IF;
END`, t.name, t.event, cond, t.message)).Error

	case "postgres":
		fn := t.name + "_fn"
		ret := "NEW"
		if t.event == "DELETE" {
			ret = "OLD"
		}
		if err := db.Exec(fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
  IF %s THEN
    RAISE EXCEPTION '%s' USING ERRCODE = '%s';
  END IF;
  RETURN %s;
END;
$$ LANGUAGE plpgsql`, fn, cond, t.message, pgRaiseException, ret)).Error; err != nil {
			return err
		}
		return db.Exec(fmt.Sprintf("CREATE TRIGGER %s BEFORE %s ON tasks FOR EACH ROW EXECUTE FUNCTION %s()",
			t.name, t.event, fn)).Error

	case "sqlite":
		return db.Exec(fmt.Sprintf(`CREATE TRIGGER %s BEFORE %s ON tasks FOR EACH ROW
WHEN %s
BEGIN
  SELECT RAISE(ABORT, '%s');
END`, t.name, t.event, cond, t.message)).Error
	}
	return fmt.Errorf("task guards not supported for dialect %s", dialect)
}

// AsProjectLocked reports whether err was raised by a completed-project
// trigger and, if so, returns the trigger's message.
func AsProjectLocked(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlErrSignal {
			return myErr.Message, true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgRaiseException {
			return pgErr.Message, true
		}
		return "", false
	}

	// SQLite reports RAISE(ABORT) as a constraint error carrying our text.
	text := err.Error()
	for _, msg := range guardMessages {
		if strings.Contains(text, msg) {
			return msg, true
		}
	}
	return "", false
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return strings.Contains(err.Error(), sqliteUniqueFailed)
}

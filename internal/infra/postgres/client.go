// postgres implements the event log's storage interfaces on a single
// Postgres database, with statement-level APM tracing.
package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.elastic.co/apm/module/apmsql"

	"github.com/lloydmeta/banques/internal/config"
)

const driverName = "banques-pgx"

func init() {
	apmsql.Register(driverName, stdlib.GetDefaultDriver())
}

// NewClient returns a configured *sql.DB based on the given conf. The
// returned pool is traced through APM.
func NewClient(conf config.Postgres) (*sql.DB, error) {
	db, err := apmsql.Open(driverName, dsn(conf))
	if err != nil {
		return nil, err
	}
	if conf.MaxConns > 0 {
		db.SetMaxOpenConns(int(conf.MaxConns))
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func dsn(conf config.Postgres) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   conf.Address,
		Path:   "/" + conf.Database,
	}
	if conf.User != nil {
		u.User = url.UserPassword(conf.User.Name, conf.User.Password)
	}
	query := url.Values{}
	sslMode := conf.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()
	return u.String()
}

// rollback discards a transaction, keeping the original error. A
// rollback after a successful commit is a no-op error we ignore.
func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
		return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
	}
	return err
}

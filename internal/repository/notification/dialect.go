package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqliteTimeLayout is fixed width so that text comparison orders timestamps.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	name       string
	numbered   bool   // $1, $2, ... placeholders instead of ?
	lockClause string // row lock appended to SELECT inside transitions
	textTime   bool   // timestamps stored as fixed-width UTC text
	schema     string
}

var (
	// Postgres is the dialect for PostgreSQL via lib/pq.
	Postgres = Dialect{
		name:       "postgres",
		numbered:   true,
		lockClause: " FOR UPDATE",
		schema:     postgresSchema,
	}

	// SQLite is the dialect for modernc.org/sqlite. Writers are serialised by
	// the single connection opened in OpenSQLite, so no row lock is needed.
	SQLite = Dialect{
		name:     "sqlite",
		textTime: true,
		schema:   sqliteSchema,
	}
)

// Name returns the dialect name as used in configuration.
func (d Dialect) Name() string { return d.name }

// DialectByName resolves a configured driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func (d Dialect) timeArg(t time.Time) any {
	t = t.UTC().Truncate(time.Microsecond)
	if d.textTime {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// nullTime scans timestamps stored either natively or as text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*n = nullTime{}
		return nil
	case time.Time:
		*n = nullTime{Time: v.UTC(), Valid: true}
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", value)
	}
}

func (n *nullTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			*n = nullTime{Time: t.UTC(), Valid: true}
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp %q", s)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

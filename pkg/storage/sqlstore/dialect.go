package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // register the MySQL driver as "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // register the pgx PostgreSQL driver as "pgx"
	_ "github.com/mattn/go-sqlite3"     // register the SQLite driver as "sqlite3"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Name is the storage.backend value selecting this dialect.
	Name string

	// DriverName is the database/sql driver name.
	DriverName string

	// Returning is true when inserts report the new ID with RETURNING id.
	// Otherwise sql.Result.LastInsertId is used.
	Returning bool

	// Positional is true when placeholders are $1, $2, ... instead of ?.
	Positional bool

	// SingleConn limits the pool to one connection. In-memory SQLite
	// databases exist per connection.
	SingleConn bool

	// Schema is run in order by Migrate. Statements must be idempotent.
	Schema []string
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
}

var (
	// SQLite uses github.com/mattn/go-sqlite3.
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite3",
		Returning:  true,
		SingleConn: true,
		Schema:     append([]string{"PRAGMA foreign_keys = ON"}, sqliteSchema...),
	}

	// Postgres uses github.com/jackc/pgx/v5/stdlib.
	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "pgx",
		Returning:  true,
		Positional: true,
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				hashed_password TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tokens (
				token TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expires_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS chats (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS files (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				filename TEXT NOT NULL,
				path TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
		},
	}

	// MySQL uses github.com/go-sql-driver/mysql.
	MySQL = Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				email VARCHAR(320) NOT NULL UNIQUE,
				hashed_password VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tokens (
				token VARCHAR(64) PRIMARY KEY,
				user_id BIGINT NOT NULL,
				expires_at BIGINT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS chats (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				title VARCHAR(255) NOT NULL,
				created_at BIGINT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				role VARCHAR(32) NOT NULL,
				content MEDIUMTEXT NOT NULL,
				created_at BIGINT NOT NULL,
				FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS files (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				filename VARCHAR(255) NOT NULL,
				path VARCHAR(1024) NOT NULL,
				created_at BIGINT NOT NULL,
				FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
		},
	}
)

var dialects = map[string]Dialect{
	SQLite.Name:   SQLite,
	Postgres.Name: Postgres,
	MySQL.Name:    MySQL,
}

// registerDialect makes an optional dialect selectable by name.
func registerDialect(d Dialect) {
	dialects[d.Name] = d
}

// LookupDialect returns the dialect registered for a storage.backend value.
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported storage backend: %q", name)
	}
	return d, nil
}

// rebind rewrites ? placeholders into the dialect's style.
func (d Dialect) rebind(query string) string {
	if !d.Positional {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
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

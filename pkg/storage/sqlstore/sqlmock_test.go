package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/storage"
	"github.com/papercomputeco/chatline/pkg/storage/sqlstore"
)

var _ = Describe("Driver against sqlmock", func() {
	var (
		db   *sql.DB
		mock sqlmock.Sqlmock
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, mock, err = sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
		db.Close()
	})

	Context("postgres dialect", func() {
		It("uses positional placeholders and RETURNING", func() {
			d := sqlstore.New(db, sqlstore.Postgres)

			mock.ExpectQuery(regexp.QuoteMeta(
				"INSERT INTO chats (user_id, title, created_at) VALUES ($1, $2, $3) RETURNING id")).
				WithArgs(int64(7), "New Chat", sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

			chat, err := d.CreateChat(ctx, 7, "New Chat")
			Expect(err).NotTo(HaveOccurred())
			Expect(chat.ID).To(Equal(int64(12)))
			Expect(chat.UserID).To(Equal(int64(7)))
		})

		It("maps a missing chat to NotFoundError", func() {
			d := sqlstore.New(db, sqlstore.Postgres)

			mock.ExpectQuery(regexp.QuoteMeta(
				"SELECT id, user_id, title, created_at FROM chats WHERE id = $1 AND user_id = $2")).
				WithArgs(int64(3), int64(7)).
				WillReturnError(sql.ErrNoRows)

			_, err := d.GetChat(ctx, 7, 3)
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError("chat not found: 3"))
		})
	})

	Context("mysql dialect", func() {
		It("reads the new ID from LastInsertId", func() {
			d := sqlstore.New(db, sqlstore.MySQL)

			mock.ExpectExec(regexp.QuoteMeta(
				"INSERT INTO messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)")).
				WithArgs(int64(5), "assistant", "hi", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(99, 1))

			msg, err := d.AddMessage(ctx, 5, storage.RoleAssistant, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.ID).To(Equal(int64(99)))
		})

		It("deletes children only when the chat row was removed", func() {
			d := sqlstore.New(db, sqlstore.MySQL)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chats WHERE id = ? AND user_id = ?")).
				WithArgs(int64(4), int64(1)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM messages WHERE chat_id = ?")).
				WithArgs(int64(4)).
				WillReturnResult(sqlmock.NewResult(0, 3))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM files WHERE chat_id = ?")).
				WithArgs(int64(4)).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit()

			Expect(d.DeleteChat(ctx, 1, 4)).To(Succeed())
		})

		It("rolls back when a delete fails", func() {
			d := sqlstore.New(db, sqlstore.MySQL)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chats WHERE id = ? AND user_id = ?")).
				WillReturnError(errors.New("lock wait timeout"))
			mock.ExpectRollback()

			Expect(d.DeleteChat(ctx, 1, 4)).To(MatchError(ContainSubstring("lock wait timeout")))
		})
	})

	Context("sqlite dialect", func() {
		It("checks for an existing email before inserting a user", func() {
			d := sqlstore.New(db, sqlstore.SQLite)

			mock.ExpectQuery(regexp.QuoteMeta(
				"SELECT id, email, hashed_password, name, created_at FROM users WHERE email = ?")).
				WithArgs("ada@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "name", "created_at"}).
					AddRow(int64(1), "ada@example.com", "h", "", time.Now().UnixMilli()))

			_, err := d.CreateUser(ctx, "ada@example.com", "other", "")
			Expect(err).To(MatchError(storage.ErrDuplicateEmail))
		})

		It("runs every schema statement on Migrate", func() {
			d := sqlstore.New(db, sqlstore.SQLite)

			for range sqlstore.SQLite.Schema {
				mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
			}

			Expect(d.Migrate(ctx)).To(Succeed())
		})

		It("wraps schema failures", func() {
			d := sqlstore.New(db, sqlstore.SQLite)

			mock.ExpectExec(".*").WillReturnError(errors.New("disk I/O error"))

			Expect(d.Migrate(ctx)).To(MatchError(ContainSubstring("failed to create schema")))
		})
	})
})

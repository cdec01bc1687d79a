// Package storagetest holds the behaviour every storage.Driver must share,
// written as ginkgo specs so each driver's suite can run them.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/storage"
)

// DescribeDriver registers the shared driver specs. newDriver is called
// before every test and the driver is closed after it.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" driver conformance", func() {
		var (
			ctx context.Context
			d   storage.Driver
			ada *storage.User
		)

		BeforeEach(func() {
			ctx = context.Background()
			d = newDriver()
			DeferCleanup(d.Close)

			var err error
			ada, err = d.CreateUser(ctx, "ada@example.com", "hash", "Ada")
			Expect(err).NotTo(HaveOccurred())
		})

		Describe("users", func() {
			It("looks users up by email and id", func() {
				byEmail, err := d.UserByEmail(ctx, "ada@example.com")
				Expect(err).NotTo(HaveOccurred())
				Expect(byEmail.ID).To(Equal(ada.ID))
				Expect(byEmail.PasswordHash).To(Equal("hash"))

				byID, err := d.UserByID(ctx, ada.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(byID.Email).To(Equal("ada@example.com"))
				Expect(byID.Name).To(Equal("Ada"))
			})

			It("rejects a duplicate email", func() {
				_, err := d.CreateUser(ctx, "ada@example.com", "other", "")
				Expect(err).To(MatchError(storage.ErrDuplicateEmail))
			})

			It("reports unknown users as not found", func() {
				_, err := d.UserByEmail(ctx, "nobody@example.com")
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})
		})

		Describe("tokens", func() {
			It("resolves a stored token", func() {
				expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
				Expect(d.PutToken(ctx, "tok", ada.ID, expires)).To(Succeed())

				t, err := d.Token(ctx, "tok")
				Expect(err).NotTo(HaveOccurred())
				Expect(t.UserID).To(Equal(ada.ID))
				Expect(t.ExpiresAt.Equal(expires)).To(BeTrue())
				Expect(t.Expired(time.Now())).To(BeFalse())
				Expect(t.Expired(expires)).To(BeTrue())
			})

			It("reports unknown tokens as not found", func() {
				_, err := d.Token(ctx, "missing")
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})
		})

		Describe("chats", func() {
			It("lists the owner's chats newest first", func() {
				first, err := d.CreateChat(ctx, ada.ID, "first")
				Expect(err).NotTo(HaveOccurred())
				second, err := d.CreateChat(ctx, ada.ID, "second")
				Expect(err).NotTo(HaveOccurred())

				chats, err := d.ListChats(ctx, ada.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(chats).To(HaveLen(2))
				Expect(chats[0].ID).To(Equal(second.ID))
				Expect(chats[1].ID).To(Equal(first.ID))
			})

			It("hides chats from other users", func() {
				bob, err := d.CreateUser(ctx, "bob@example.com", "hash", "")
				Expect(err).NotTo(HaveOccurred())
				chat, err := d.CreateChat(ctx, ada.ID, "private")
				Expect(err).NotTo(HaveOccurred())

				_, err = d.GetChat(ctx, bob.ID, chat.ID)
				Expect(storage.IsNotFound(err)).To(BeTrue())

				_, err = d.RenameChat(ctx, bob.ID, chat.ID, "mine now")
				Expect(storage.IsNotFound(err)).To(BeTrue())

				chats, err := d.ListChats(ctx, bob.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(chats).To(BeEmpty())
			})

			It("renames a chat", func() {
				chat, err := d.CreateChat(ctx, ada.ID, "New Chat")
				Expect(err).NotTo(HaveOccurred())

				renamed, err := d.RenameChat(ctx, ada.ID, chat.ID, "Groceries")
				Expect(err).NotTo(HaveOccurred())
				Expect(renamed.Title).To(Equal("Groceries"))

				got, err := d.GetChat(ctx, ada.ID, chat.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(Equal("Groceries"))
			})

			It("deletes a chat with its messages and files", func() {
				chat, err := d.CreateChat(ctx, ada.ID, "doomed")
				Expect(err).NotTo(HaveOccurred())
				_, err = d.AddMessage(ctx, chat.ID, storage.RoleUser, "hi")
				Expect(err).NotTo(HaveOccurred())
				_, err = d.AddFile(ctx, &storage.File{ChatID: chat.ID, UserID: ada.ID, Filename: "a.txt", Path: "/tmp/a.txt"})
				Expect(err).NotTo(HaveOccurred())

				Expect(d.DeleteChat(ctx, ada.ID, chat.ID)).To(Succeed())
				Expect(d.DeleteChat(ctx, ada.ID, chat.ID)).To(Succeed())

				_, err = d.GetChat(ctx, ada.ID, chat.ID)
				Expect(storage.IsNotFound(err)).To(BeTrue())

				msgs, err := d.ListMessages(ctx, chat.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(msgs).To(BeEmpty())
			})
		})

		Describe("messages", func() {
			It("keeps messages in insertion order", func() {
				chat, err := d.CreateChat(ctx, ada.ID, "c")
				Expect(err).NotTo(HaveOccurred())

				_, err = d.AddMessage(ctx, chat.ID, storage.RoleUser, "hello")
				Expect(err).NotTo(HaveOccurred())
				_, err = d.AddMessage(ctx, chat.ID, storage.RoleAssistant, "hi there")
				Expect(err).NotTo(HaveOccurred())

				msgs, err := d.ListMessages(ctx, chat.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(msgs).To(HaveLen(2))
				Expect(msgs[0].Role).To(Equal(storage.RoleUser))
				Expect(msgs[1].Content).To(Equal("hi there"))
				Expect(msgs[1].ChatID).To(Equal(chat.ID))
			})
		})

		Describe("files", func() {
			It("records files only in the owner's chats", func() {
				chat, err := d.CreateChat(ctx, ada.ID, "c")
				Expect(err).NotTo(HaveOccurred())

				f, err := d.AddFile(ctx, &storage.File{ChatID: chat.ID, UserID: ada.ID, Filename: "notes.md", Path: "uploads/1_notes.md"})
				Expect(err).NotTo(HaveOccurred())
				Expect(f.ID).NotTo(BeZero())

				files, err := d.ListFiles(ctx, ada.ID, chat.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(files).To(HaveLen(1))
				Expect(files[0].Filename).To(Equal("notes.md"))

				_, err = d.AddFile(ctx, &storage.File{ChatID: chat.ID, UserID: ada.ID + 100, Filename: "x", Path: "x"})
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})
		})
	})
}

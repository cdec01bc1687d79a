package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/storage"
	"github.com/papercomputeco/chatline/pkg/storage/inmemory"
	"github.com/papercomputeco/chatline/pkg/storage/storagetest"
)

var _ = storagetest.DescribeDriver("inmemory", func() storage.Driver {
	return inmemory.NewDriver()
})

var _ = Describe("Driver", func() {
	It("rejects messages for unknown chats", func() {
		d := inmemory.NewDriver()
		_, err := d.AddMessage(context.Background(), 42, storage.RoleUser, "hi")
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("returns copies that callers cannot mutate", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()
		u, err := d.CreateUser(ctx, "a@example.com", "h", "")
		Expect(err).NotTo(HaveOccurred())
		chat, err := d.CreateChat(ctx, u.ID, "original")
		Expect(err).NotTo(HaveOccurred())

		chat.Title = "changed"

		got, err := d.GetChat(ctx, u.ID, chat.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("original"))
	})
})

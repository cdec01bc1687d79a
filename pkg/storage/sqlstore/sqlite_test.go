package sqlstore_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/storage"
	"github.com/papercomputeco/chatline/pkg/storage/sqlstore"
	"github.com/papercomputeco/chatline/pkg/storage/storagetest"
)

var _ = storagetest.DescribeDriver("sqlite", func() storage.Driver {
	d, err := sqlstore.Open(context.Background(), "sqlite", ":memory:")
	Expect(err).NotTo(HaveOccurred())
	return d
})

var _ = Describe("Open", func() {
	It("creates a file database with the schema", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "chat.db")

		d, err := sqlstore.Open(context.Background(), "sqlite", dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		_, err = d.CreateUser(context.Background(), "ada@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())
	})

	It("is idempotent across reopen", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "chat.db")
		ctx := context.Background()

		d, err := sqlstore.Open(ctx, "sqlite", dbPath)
		Expect(err).NotTo(HaveOccurred())
		u, err := d.CreateUser(ctx, "ada@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Close()).To(Succeed())

		d, err = sqlstore.Open(ctx, "sqlite", dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		got, err := d.UserByEmail(ctx, "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(u.ID))
	})

	It("rejects unknown backends", func() {
		_, err := sqlstore.Open(context.Background(), "oracle", "")
		Expect(err).To(MatchError(ContainSubstring(`unsupported storage backend: "oracle"`)))
	})
})

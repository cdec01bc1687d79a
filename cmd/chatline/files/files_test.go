package filescmder_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/cmd/chatline/cmdtest"
	filescmder "github.com/papercomputeco/chatline/cmd/chatline/files"
	"github.com/papercomputeco/chatline/pkg/chatapi"
)

var _ = Describe("Files Command", func() {
	var (
		env    *cmdtest.Env
		client *chatapi.Client
		ctx    context.Context
		chat   *chatapi.Chat
		path   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir := GinkgoT().TempDir()

		var err error
		env, err = cmdtest.Start(dir, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(env.Close)

		client, err = env.SignIn(ctx, "ada@example.com", "pw")
		Expect(err).NotTo(HaveOccurred())
		chat, err = client.CreateChat(ctx, "with files")
		Expect(err).NotTo(HaveOccurred())

		path = filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(path, []byte("the meeting is on tuesday"), 0o600)).To(Succeed())
	})

	It("has upload and list subcommands", func() {
		cmd := filescmder.NewFilesCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("upload", "list"))
		Expect(cmd.PersistentFlags().Lookup("chat")).NotTo(BeNil())
	})

	It("needs a chat", func() {
		_, err := env.Run(filescmder.NewFilesCmd(), "", "list")
		Expect(err).To(MatchError(apiclient.ErrNoChat))
	})

	It("uploads a file and lists it", func() {
		id := strconv.FormatInt(chat.ID, 10)

		out, err := env.Run(filescmder.NewFilesCmd(), "", "upload", path, "--chat", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("notes.txt"))

		out, err = env.Run(filescmder.NewFilesCmd(), "", "list", "--chat", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("notes.txt"))

		reply, err := client.PostMessage(ctx, chat.ID, "when?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("You said: when?"))
	})

	It("reports a missing local file", func() {
		_, err := env.Run(filescmder.NewFilesCmd(), "", "upload", "/does/not/exist", "-c", "1")
		Expect(err).To(MatchError(ContainSubstring("opening")))
	})

	It("surfaces the server refusing a foreign chat", func() {
		_, err := env.Run(filescmder.NewFilesCmd(), "", "upload", path, "-c", "999")
		Expect(chatapi.StatusCode(err)).To(Equal(403))
	})
})

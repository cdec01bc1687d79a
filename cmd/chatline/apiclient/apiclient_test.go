package apiclient_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/config"
)

var _ = Describe("Options", func() {
	var (
		dir  string
		opts *apiclient.Options
		cmd  *cobra.Command
	)

	newCmd := func(args ...string) {
		opts = &apiclient.Options{}
		cmd = &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
		cmd.Flags().String("config-dir", "", "")
		cmd.Flags().Bool("debug", false, "")
		opts.AddFlags(cmd)
		Expect(cmd.ParseFlags(append([]string{"--config-dir", dir}, args...))).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("falls back to defaults", func() {
		newCmd()
		Expect(opts.Resolve(cmd)).To(Succeed())
		Expect(opts.APITarget).To(Equal("http://localhost:8000"))
		Expect(opts.Timeout).To(Equal("5m"))
		Expect(opts.Markdown).To(BeFalse())
		Expect(opts.ConfigDir).To(Equal(dir))
	})

	It("prefers the config file over defaults", func() {
		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("client.api_target", "http://chat.internal:9000")).To(Succeed())

		newCmd()
		Expect(opts.Resolve(cmd)).To(Succeed())
		Expect(opts.APITarget).To(Equal("http://chat.internal:9000"))
	})

	It("prefers the environment over the config file", func() {
		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("client.api_target", "http://from-file")).To(Succeed())
		GinkgoT().Setenv("CHATLINE_CLIENT_API_TARGET", "http://from-env")

		newCmd()
		Expect(opts.Resolve(cmd)).To(Succeed())
		Expect(opts.APITarget).To(Equal("http://from-env"))
	})

	It("prefers flags over everything", func() {
		GinkgoT().Setenv("CHATLINE_CLIENT_API_TARGET", "http://from-env")

		newCmd("--api-target", "http://from-flag", "--markdown")
		Expect(opts.Resolve(cmd)).To(Succeed())
		Expect(opts.APITarget).To(Equal("http://from-flag"))
		Expect(opts.Markdown).To(BeTrue())
	})

	It("rejects an invalid timeout when building the client", func() {
		newCmd("--timeout", "soon")
		Expect(opts.Resolve(cmd)).To(Succeed())
		_, _, err := opts.NewClient(&bytes.Buffer{})
		Expect(err).To(MatchError(ContainSubstring("invalid timeout")))
	})

	Describe("chat selection", func() {
		BeforeEach(func() {
			newCmd()
			Expect(opts.Resolve(cmd)).To(Succeed())
		})

		It("fails without an explicit or selected chat", func() {
			_, err := opts.ChatID(0)
			Expect(err).To(MatchError(apiclient.ErrNoChat))
		})

		It("prefers the explicit chat", func() {
			Expect(opts.Select(&chatapi.Chat{ID: 3})).To(Succeed())
			id, err := opts.ChatID(9)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(9)))
		})

		It("falls back to the selection and forgets it on unselect", func() {
			Expect(opts.Select(&chatapi.Chat{ID: 3, Title: "x"})).To(Succeed())
			id, err := opts.ChatID(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(3)))

			Expect(opts.Unselect(4)).To(Succeed())
			_, err = opts.ChatID(0)
			Expect(err).NotTo(HaveOccurred())

			Expect(opts.Unselect(3)).To(Succeed())
			_, err = opts.ChatID(0)
			Expect(err).To(MatchError(apiclient.ErrNoChat))
		})
	})
})

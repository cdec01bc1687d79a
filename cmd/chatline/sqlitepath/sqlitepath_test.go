package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var home, cwd string

	BeforeEach(func() {
		home = GinkgoT().TempDir()
		cwd = GinkgoT().TempDir()

		GinkgoT().Setenv("HOME", home)
		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("CHATLINE_HOME", "")
		GinkgoT().Setenv(EnvPath, "")

		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(cwd)).To(Succeed())
		DeferCleanup(os.Chdir, orig)
	})

	touch := func(path string) {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, nil, 0o600)).To(Succeed())
	}

	It("returns the dsn unchanged", func() {
		GinkgoT().Setenv(EnvPath, "/tmp/ignored.db")
		path, err := ResolveSQLitePath("/srv/chat.db", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/srv/chat.db"))
	})

	It("uses CHATLINE_DB without checking it exists", func() {
		GinkgoT().Setenv(EnvPath, "/tmp/other.db")

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/other.db"))
	})

	It("finds the database next to config.toml in --config-dir", func() {
		configDir := GinkgoT().TempDir()
		want := filepath.Join(configDir, FileName)
		touch(want)
		touch(filepath.Join(home, ".chatline", FileName))

		path, err := ResolveSQLitePath("", configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(want))
	})

	It("finds the database in a project .chatline dir above the working directory", func() {
		want := filepath.Join(cwd, ".chatline", FileName)
		touch(want)
		nested := filepath.Join(cwd, "src", "app")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
		Expect(os.Chdir(nested)).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.EvalSymlinks(path)).To(Equal(mustEval(want)))
	})

	It("resolves ~/.chatline/chatline.db when present", func() {
		want := filepath.Join(home, ".chatline", FileName)
		touch(want)

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(want))
	})

	It("falls back to XDG_DATA_HOME after the chatline directory", func() {
		xdg := GinkgoT().TempDir()
		GinkgoT().Setenv("XDG_DATA_HOME", xdg)
		want := filepath.Join(xdg, "chatline", FileName)
		touch(want)

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(want))

		touch(filepath.Join(home, ".chatline", FileName))
		path, err = ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(home, ".chatline", FileName)))
	})

	It("rejects a directory where the database should be", func() {
		Expect(os.MkdirAll(filepath.Join(home, ".chatline", FileName), 0o755)).To(Succeed())

		_, err := ResolveSQLitePath("", "")
		Expect(err).To(MatchError(ContainSubstring("not a regular file")))
	})

	It("reports when nothing exists", func() {
		_, err := ResolveSQLitePath("", "")
		Expect(err).To(MatchError(ErrNotFound))
	})
})

func mustEval(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	Expect(err).NotTo(HaveOccurred())
	return resolved
}

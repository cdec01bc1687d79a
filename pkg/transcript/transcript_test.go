package transcript_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/transcript"
)

var _ = Describe("Transcript", func() {
	var t *transcript.Transcript

	BeforeEach(func() {
		t = transcript.New(
			transcript.Message{Role: transcript.RoleUser, Content: "hi"},
			transcript.Message{Role: transcript.RoleAssistant, Content: "hello"},
		)
	})

	It("assigns handles to seeded history", func() {
		msgs := t.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Handle).NotTo(BeEmpty())
		Expect(msgs[0].Handle).NotTo(Equal(msgs[1].Handle))
	})

	It("begins an empty streaming message", func() {
		h := t.Begin(transcript.RoleAssistant)

		m, ok := t.Get(h)
		Expect(ok).To(BeTrue())
		Expect(m.Content).To(BeEmpty())
		Expect(m.Streaming).To(BeTrue())
		Expect(t.Len()).To(Equal(3))
	})

	It("replaces content by handle even after other messages move", func() {
		user := t.Append(transcript.RoleUser, "question")
		h := t.Begin(transcript.RoleAssistant)
		t.Append(transcript.RoleSystem, "file uploaded")

		Expect(t.Remove(user)).To(Succeed())
		Expect(t.Replace(h, "Hel")).To(Succeed())
		Expect(t.Replace(h, "Hello")).To(Succeed())
		Expect(t.Finish(h)).To(Succeed())

		m, ok := t.Get(h)
		Expect(ok).To(BeTrue())
		Expect(m.Content).To(Equal("Hello"))
		Expect(m.Streaming).To(BeFalse())

		msgs := t.Messages()
		Expect(msgs[len(msgs)-1].Role).To(Equal(transcript.RoleSystem))
	})

	It("rejects unknown handles", func() {
		err := t.Replace(transcript.Handle("nope"), "x")
		Expect(err).To(MatchError(transcript.ErrUnknownHandle))
		Expect(t.Finish("nope")).To(MatchError(transcript.ErrUnknownHandle))
		Expect(t.Remove("nope")).To(MatchError(transcript.ErrUnknownHandle))

		_, ok := t.Get("nope")
		Expect(ok).To(BeFalse())
	})

	It("returns a copy from Messages", func() {
		msgs := t.Messages()
		msgs[0].Content = "mutated"
		Expect(t.Messages()[0].Content).To(Equal("hi"))
	})

	It("supports concurrent streams targeting distinct handles", func() {
		a := t.Begin(transcript.RoleAssistant)
		b := t.Begin(transcript.RoleAssistant)

		var wg sync.WaitGroup
		for _, h := range []transcript.Handle{a, b} {
			wg.Add(1)
			go func(h transcript.Handle) {
				defer GinkgoRecover()
				defer wg.Done()
				content := ""
				for range 50 {
					content += "x"
					Expect(t.Replace(h, content)).To(Succeed())
				}
			}(h)
		}
		wg.Wait()

		ma, _ := t.Get(a)
		mb, _ := t.Get(b)
		Expect(ma.Content).To(HaveLen(50))
		Expect(mb.Content).To(HaveLen(50))
	})
})

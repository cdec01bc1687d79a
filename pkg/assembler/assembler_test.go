package assembler_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/assembler"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

const helloStream = "data: {\"content\":\"Hel\"}\n\n" +
	"data: {\"content\":\"lo\"}\n\n" +
	"data: [DONE]\n\n"

// recorder collects everything an assembler reports.
type recorder struct {
	snapshots    []assembler.Snapshot
	decodeErrors []*assembler.DecodeError
	serverErrors []string
}

func (r *recorder) options() []assembler.Option {
	return []assembler.Option{
		assembler.WithSnapshotFunc(func(s assembler.Snapshot) { r.snapshots = append(r.snapshots, s) }),
		assembler.WithDecodeErrorFunc(func(e *assembler.DecodeError) { r.decodeErrors = append(r.decodeErrors, e) }),
		assembler.WithServerErrorFunc(func(m string) { r.serverErrors = append(r.serverErrors, m) }),
	}
}

func (r *recorder) contents() []string {
	out := make([]string, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s.Content)
	}
	return out
}

// feedSplit feeds input to a in pieces cut at the given offsets.
func feedSplit(a *assembler.Assembler, input string, cuts []int) {
	prev := 0
	for _, c := range cuts {
		if a.State().Terminal() {
			return
		}
		Expect(a.Feed([]byte(input[prev:c]))).To(Succeed())
		prev = c
	}
	if !a.State().Terminal() {
		Expect(a.Feed([]byte(input[prev:]))).To(Succeed())
	}
}

var _ = Describe("Assembler", func() {
	var (
		rec    *recorder
		handle transcript.Handle
		a      *assembler.Assembler
	)

	BeforeEach(func() {
		rec = &recorder{}
		handle = transcript.Handle("reply-1")
		a = assembler.New(handle, rec.options()...)
	})

	Describe("Feed", func() {
		It("emits full snapshots then stops at the sentinel", func() {
			Expect(a.Feed([]byte("data: {\"content\":\"Hel\"}\n\n"))).To(Succeed())
			Expect(a.Feed([]byte("data: {\"content\":\"lo\"}\n\n"))).To(Succeed())
			Expect(a.Feed([]byte("data: [DONE]\n\n"))).To(Succeed())

			Expect(rec.contents()).To(Equal([]string{"Hel", "Hello"}))
			Expect(a.State()).To(Equal(assembler.StateDone))

			Expect(a.Feed([]byte("data: {\"content\":\"!\"}\n\n"))).To(MatchError(assembler.ErrTerminated))
			Expect(rec.snapshots).To(HaveLen(2))
		})

		It("addresses every snapshot to its handle in sequence", func() {
			Expect(a.Feed([]byte(helloStream))).To(Succeed())

			Expect(rec.snapshots).To(HaveLen(2))
			for i, s := range rec.snapshots {
				Expect(s.Handle).To(Equal(handle))
				Expect(s.Seq).To(Equal(i + 1))
			}
		})

		It("ignores payloads after the sentinel within the same chunk", func() {
			input := "data: {\"content\":\"a\"}\n\ndata: [DONE]\n\ndata: {\"content\":\"b\"}\n\n"
			Expect(a.Feed([]byte(input))).To(Succeed())

			Expect(a.Content()).To(Equal("a"))
			Expect(rec.snapshots).To(HaveLen(1))
		})

		It("skips malformed payloads and keeps going", func() {
			input := "data: {\"content\":\"A\"}\n\n" +
				"data: not-json\n\n" +
				"data: {\"content\":\"B\"}\n\n"
			Expect(a.Feed([]byte(input))).To(Succeed())

			Expect(a.State()).To(Equal(assembler.StateStreaming))
			Expect(rec.contents()).To(Equal([]string{"A", "AB"}))
			Expect(rec.decodeErrors).To(HaveLen(1))
			Expect(rec.decodeErrors[0].Payload).To(Equal("not-json"))
			Expect(a.Result().DecodeErrors).To(Equal(1))
		})

		It("treats a payload that is not a JSON object as malformed", func() {
			Expect(a.Feed([]byte("data: 42\n\ndata: \"str\"\n\ndata: null\n\n"))).To(Succeed())

			Expect(rec.decodeErrors).To(HaveLen(3))
			Expect(rec.snapshots).To(BeEmpty())
		})

		It("treats non-string content as malformed without touching the message", func() {
			input := "data: {\"content\":\"A\"}\n\n" +
				"data: {\"content\":5}\n\n" +
				"data: {\"content\":[\"B\"]}\n\n"
			Expect(a.Feed([]byte(input))).To(Succeed())

			Expect(rec.decodeErrors).To(HaveLen(2))
			Expect(rec.decodeErrors[0].Payload).To(Equal(`{"content":5}`))
			Expect(rec.contents()).To(Equal([]string{"A"}))
			Expect(a.State()).To(Equal(assembler.StateStreaming))
		})

		It("defaults missing content to an empty string", func() {
			Expect(a.Feed([]byte("data: {\"role\":\"assistant\"}\n\n"))).To(Succeed())

			Expect(rec.contents()).To(Equal([]string{""}))
		})

		It("reports server error payloads without aborting", func() {
			input := "data: {\"error\":\"upstream timed out\"}\n\ndata: {\"content\":\"late\"}\n\n"
			Expect(a.Feed([]byte(input))).To(Succeed())

			Expect(rec.serverErrors).To(Equal([]string{"upstream timed out"}))
			Expect(a.Content()).To(Equal("late"))
			Expect(a.Result().ServerErrors).To(Equal([]string{"upstream timed out"}))
		})

		It("ignores lines without the data tag", func() {
			input := ": keep-alive\n\nevent: delta\ndata: {\"content\":\"x\"}\n\n"
			Expect(a.Feed([]byte(input))).To(Succeed())

			Expect(a.Content()).To(Equal("x"))
		})

		It("reassembles multi-byte runes split across chunks", func() {
			input := "data: {\"content\":\"naïve €\"}\n\n"
			for i := range len(input) {
				Expect(a.Feed([]byte{input[i]})).To(Succeed())
			}
			Expect(a.Content()).To(Equal("naïve €"))
		})
	})

	Describe("Close", func() {
		It("terminates without decoding an unterminated block", func() {
			Expect(a.Feed([]byte("data: {\"content\":\"kept\"}\n\ndata: {\"content\":\"lost\"}"))).To(Succeed())
			a.Close()

			res := a.Result()
			Expect(res.State).To(Equal(assembler.StateClosed))
			Expect(res.Content).To(Equal("kept"))
			Expect(res.Truncated).To(Equal(len("data: {\"content\":\"lost\"}")))
		})

		It("leaves the assembler non-resumable", func() {
			a.Close()
			Expect(a.State().Terminal()).To(BeTrue())
			Expect(a.Feed([]byte(helloStream))).To(MatchError(assembler.ErrTerminated))
			Expect(rec.snapshots).To(BeEmpty())
		})

		It("does not change the state after the sentinel", func() {
			Expect(a.Feed([]byte(helloStream))).To(Succeed())
			a.Close()
			Expect(a.State()).To(Equal(assembler.StateDone))
			Expect(a.Result().Truncated).To(BeZero())
		})
	})

	Describe("chunk-boundary independence", func() {
		stream := "data: {\"content\":\"The \"}\n\n" +
			": comment\n\n" +
			"data: {\"content\":\"quick \"}\ndata: {\"content\":\"brown \"}\n\n" +
			"data: broken\n\n" +
			"data: {\"content\":\"fox — ünïcödé 📎\"}\n\n" +
			"data: [DONE]\n\n"

		It("assembles the same message for random fragmentations", func() {
			whole := assembler.New(handle)
			Expect(whole.Feed([]byte(stream))).To(Succeed())
			expected := whole.Content()
			Expect(expected).To(Equal("The quick brown fox — ünïcödé 📎"))

			r := rand.New(rand.NewSource(GinkgoRandomSeed()))
			for range 200 {
				var cuts []int
				for i := 1; i < len(stream); i++ {
					if r.Intn(6) == 0 {
						cuts = append(cuts, i)
					}
				}

				rec := &recorder{}
				fragmented := assembler.New(handle, rec.options()...)
				feedSplit(fragmented, stream, cuts)

				Expect(fragmented.Content()).To(Equal(expected))
				Expect(fragmented.State()).To(Equal(assembler.StateDone))

				for i := 1; i < len(rec.snapshots); i++ {
					Expect(len(rec.snapshots[i].Content)).To(BeNumerically(">=", len(rec.snapshots[i-1].Content)))
				}
			}
		})
	})
})

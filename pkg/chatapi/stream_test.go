package chatapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/assembler"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

const replyStream = "data: {\"content\":\"Hé\"}\n\n" +
	"data: {\"content\":\"llo \"}\n\n" +
	"data: {\"content\":\"wörld\"}\n\n" +
	"data: [DONE]\n\n"

// chunkedHandler writes body in pieces of size n, flushing after each.
func chunkedHandler(body string, n int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for len(body) > 0 {
			k := min(n, len(body))
			_, _ = io.WriteString(w, body[:k])
			flusher.Flush()
			body = body[k:]
		}
	}
}

var _ = Describe("StreamMessage", func() {
	var (
		ctx     context.Context
		sess    *memSession
		handler http.HandlerFunc
		srv     *httptest.Server
		client  *chatapi.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		sess = &memSession{token: "tok"}
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(srv.Close)
		client = chatapi.New(srv.URL, sess)
	})

	It("posts the user message to the stream endpoint", func() {
		var (
			path   string
			accept string
			body   map[string]string
		)
		handler = func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			accept = r.Header.Get("Accept")
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			chunkedHandler(replyStream, 1024)(w, r)
		}

		_, err := client.StreamMessage(ctx, 7, "hello", "h", func(assembler.Snapshot) {})
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/chats/7/messages/stream"))
		Expect(accept).To(Equal("text/event-stream"))
		Expect(body).To(Equal(map[string]string{"role": "user", "content": "hello"}))
	})

	DescribeTable("assembles the same reply for any fragmentation",
		func(size int) {
			handler = chunkedHandler(replyStream, size)

			var snaps []assembler.Snapshot
			res, err := client.StreamMessage(ctx, 1, "hi", "h1", func(s assembler.Snapshot) {
				snaps = append(snaps, s)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Content).To(Equal("Héllo wörld"))
			Expect(res.State).To(Equal(assembler.StateDone))
			Expect(snaps).To(HaveLen(3))
			Expect(snaps[2].Content).To(Equal("Héllo wörld"))
			for _, s := range snaps {
				Expect(s.Handle).To(Equal(transcript.Handle("h1")))
			}
		},
		Entry("one byte at a time", 1),
		Entry("two bytes", 2),
		Entry("seven bytes", 7),
		Entry("whole body", len(replyStream)),
	)

	It("surfaces server error payloads without failing", func() {
		handler = chunkedHandler("data: {\"content\":\"part\"}\n\ndata: {\"error\":\"upstream down\"}\n\ndata: [DONE]\n\n", 64)

		res, err := client.StreamMessage(ctx, 1, "hi", "h", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(Equal("part"))
		Expect(res.ServerErrors).To(Equal([]string{"upstream down"}))
	})

	It("reports a truncated tail when the stream ends mid-block", func() {
		tail := `data: {"content":"lost"}`
		handler = chunkedHandler("data: {\"content\":\"kept\"}\n\n"+tail, 64)

		res, err := client.StreamMessage(ctx, 1, "hi", "h", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(Equal("kept"))
		Expect(res.State).To(Equal(assembler.StateClosed))
		Expect(res.Truncated).To(Equal(len(tail)))
	})

	It("turns a JSON rejection into an APIError", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"error":"Invalid request"}`)
		}

		_, err := client.StreamMessage(ctx, 1, "", "h", nil)
		var apiErr *chatapi.APIError
		Expect(err).To(BeAssignableToTypeOf(apiErr))
		Expect(err.Error()).To(ContainSubstring("Invalid request"))
	})

	It("stops reading when the context is cancelled and keeps the partial reply", func() {
		release := make(chan struct{})
		DeferCleanup(func() { close(release) })

		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: {\"content\":\"partial\"}\n\n")
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}

		cctx, cancel := context.WithCancel(ctx)
		res, err := client.StreamMessage(cctx, 1, "hi", "h", func(assembler.Snapshot) {
			cancel()
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Content).To(Equal("partial"))
		Expect(res.State).To(Equal(assembler.StateAborted))
	})
})

var _ = Describe("StreamReply", func() {
	It("streams into a fresh assistant message of the transcript", func() {
		srv := httptest.NewServer(chunkedHandler(replyStream, 3))
		DeferCleanup(srv.Close)
		client := chatapi.New(srv.URL, &memSession{token: "tok"})

		t := transcript.New()
		var seen []string
		res, err := client.StreamReply(context.Background(), t, 1, "hi", func(s assembler.Snapshot) {
			msg, ok := t.Get(s.Handle)
			Expect(ok).To(BeTrue())
			seen = append(seen, msg.Content)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]string{"Hé", "Héllo ", "Héllo wörld"}))

		msgs := t.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal(transcript.RoleUser))
		Expect(msgs[0].Content).To(Equal("hi"))
		Expect(msgs[1].Handle).To(Equal(res.Handle))
		Expect(msgs[1].Content).To(Equal("Héllo wörld"))
		Expect(msgs[1].Streaming).To(BeFalse())
	})

	It("keeps reading a reply that outlasts the header timeout", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.(http.Flusher).Flush()
			for _, part := range []string{"slow ", "but ", "steady"} {
				time.Sleep(60 * time.Millisecond)
				_, _ = io.WriteString(w, "data: {\"content\":\""+part+"\"}\n\n")
				w.(http.Flusher).Flush()
			}
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
		}))
		DeferCleanup(srv.Close)
		client := chatapi.New(srv.URL, &memSession{token: "tok"},
			chatapi.WithHTTPClient(chatapi.NewHTTPClient(100*time.Millisecond)))

		res, err := client.StreamMessage(context.Background(), 1, "hi", "h", func(assembler.Snapshot) {})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(Equal("slow but steady"))
	})

	It("gives up on a server that never starts answering", func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		DeferCleanup(srv.Close)
		DeferCleanup(func() { close(release) })
		client := chatapi.New(srv.URL, &memSession{token: "tok"},
			chatapi.WithHTTPClient(chatapi.NewHTTPClient(50*time.Millisecond)))

		_, err := client.StreamMessage(context.Background(), 1, "hi", "h", func(assembler.Snapshot) {})
		Expect(err).To(MatchError(ContainSubstring("timeout")))
	})

	It("leaves the partial reply in place when the stream fails", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: {\"content\":\"half\"}\n\n")
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
		DeferCleanup(srv.Close)
		client := chatapi.New(srv.URL, &memSession{token: "tok"})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		DeferCleanup(cancel)

		t := transcript.New()
		_, err := client.StreamReply(ctx, t, 1, "hi", nil)
		Expect(err).To(HaveOccurred())
		Expect(t.Messages()[1].Content).To(Equal("half"))
	})
})

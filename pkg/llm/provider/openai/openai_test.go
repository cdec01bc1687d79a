package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/llm"
	"github.com/papercomputeco/chatline/pkg/llm/provider"
	"github.com/papercomputeco/chatline/pkg/llm/provider/openai"
)

var _ = Describe("OpenAI provider", func() {
	var (
		server   *httptest.Server
		received map[string]any
		auth     string
		frames   []string
		status   int
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		frames = []string{
			`{"id":"c1","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
			`{"id":"c1","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
			`{"id":"c1","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			`[DONE]`,
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			auth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(body, &received)).To(Succeed())

			if status != http.StatusOK {
				w.WriteHeader(status)
				fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, f := range frames {
				fmt.Fprintf(w, "data: %s\n\n", f)
				flusher.Flush()
			}
		}))
		DeferCleanup(server.Close)
	})

	req := &llm.ChatRequest{
		Model:    "gpt-4o-mini",
		System:   "be brief",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	}

	It("streams deltas and sends the system prompt first", func() {
		p := openai.New(server.URL+"/v1/", "sk-test", server.Client())

		text, err := provider.Complete(context.Background(), p, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Hello"))

		Expect(auth).To(Equal("Bearer sk-test"))
		Expect(received).To(HaveKeyWithValue("stream", true))
		Expect(received).To(HaveKeyWithValue("model", "gpt-4o-mini"))
		msgs := received["messages"].([]any)
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0]).To(HaveKeyWithValue("role", "system"))
	})

	It("reports a non-2xx upstream as UpstreamError", func() {
		status = http.StatusUnauthorized
		p := openai.New(server.URL+"/v1", "", server.Client())

		_, err := provider.Complete(context.Background(), p, req)
		var upErr *provider.UpstreamError
		Expect(err).To(BeAssignableToTypeOf(upErr))
		Expect(err.(*provider.UpstreamError).Status).To(Equal(http.StatusUnauthorized))
		Expect(err).To(MatchError(ContainSubstring("bad key")))
	})

	It("fails a stream that ends without the sentinel but keeps the text", func() {
		frames = frames[:3]
		p := openai.New(server.URL+"/v1", "", server.Client())

		text, err := provider.Complete(context.Background(), p, req)
		Expect(err).To(MatchError(ContainSubstring("without [DONE]")))
		Expect(text).To(Equal("Hello"))
	})

	It("surfaces in-stream errors", func() {
		frames = []string{`{"error":{"message":"quota exceeded","type":"rate_limit"}}`}
		p := openai.New(server.URL+"/v1", "", server.Client())

		_, err := provider.Complete(context.Background(), p, req)
		Expect(err).To(MatchError(ContainSubstring("quota exceeded")))
	})
})

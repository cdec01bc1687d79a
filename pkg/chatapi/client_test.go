package chatapi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/session"
)

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		sess    *memSession
		handler http.HandlerFunc
		srv     *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		sess = &memSession{token: "tok-1", email: "ada@example.com"}
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(srv.Close)
	})

	Describe("request headers", func() {
		It("sends the bearer token and a request ID", func() {
			var got http.Header
			handler = func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				_, _ = io.WriteString(w, `[]`)
			}

			_, err := chatapi.New(srv.URL, sess).ListChats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Get("Authorization")).To(Equal("Bearer tok-1"))
			_, err = uuid.Parse(got.Get(chatapi.HeaderRequestID))
			Expect(err).NotTo(HaveOccurred())
		})

		It("omits the authorization header when signed out", func() {
			sess.token = ""
			var got http.Header
			handler = func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				_, _ = io.WriteString(w, `[]`)
			}

			_, err := chatapi.New(srv.URL, sess).ListChats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Get("Authorization")).To(BeEmpty())
		})

		It("uses a fresh request ID for every call", func() {
			var ids []string
			handler = func(w http.ResponseWriter, r *http.Request) {
				ids = append(ids, r.Header.Get(chatapi.HeaderRequestID))
				_, _ = io.WriteString(w, `[]`)
			}

			client := chatapi.New(srv.URL, sess)
			_, _ = client.ListChats(ctx)
			_, _ = client.ListChats(ctx)
			Expect(ids).To(HaveLen(2))
			Expect(ids[0]).NotTo(Equal(ids[1]))
		})
	})

	Describe("session-expiry gate", func() {
		var hookCalls atomic.Int32

		BeforeEach(func() {
			hookCalls.Store(0)
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			}
		})

		It("clears the session, runs the hook and returns ErrSessionExpired", func() {
			client := chatapi.New(srv.URL, sess, chatapi.WithSessionExpiredFunc(func() {
				hookCalls.Add(1)
			}))

			_, err := client.Me(ctx)
			Expect(err).To(MatchError(chatapi.ErrSessionExpired))
			Expect(sess.token).To(BeEmpty())
			Expect(sess.email).To(BeEmpty())
			Expect(hookCalls.Load()).To(Equal(int32(1)))
		})

		It("applies to every operation", func() {
			client := chatapi.New(srv.URL, sess)

			_, err := client.ListChats(ctx)
			Expect(errors.Is(err, chatapi.ErrSessionExpired)).To(BeTrue())
			err = client.DeleteChat(ctx, 1)
			Expect(errors.Is(err, chatapi.ErrSessionExpired)).To(BeTrue())
			_, err = client.StreamMessage(ctx, 1, "hi", "h", nil)
			Expect(errors.Is(err, chatapi.ErrSessionExpired)).To(BeTrue())
		})

		It("clears the session file of a real store", func() {
			store, err := session.NewStore(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
			Expect(store.SetLogin(srv.URL, "ada@example.com", "tok")).To(Succeed())

			_, err = chatapi.New(srv.URL, store).Me(ctx)
			Expect(err).To(MatchError(chatapi.ErrSessionExpired))

			loaded, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Token).To(BeEmpty())
			Expect(loaded.Email).To(BeEmpty())
			Expect(loaded.APITarget).To(Equal(srv.URL))
			Expect(filepath.Base(store.GetTarget())).To(Equal("session.toml"))
		})
	})

	Describe("API errors", func() {
		It("parses a string detail", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"detail":"Not found"}`)
			}

			_, err := chatapi.New(srv.URL, sess).GetChat(ctx, 9)
			var apiErr *chatapi.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Status).To(Equal(http.StatusNotFound))
			Expect(apiErr.Detail).To(Equal("Not found"))
			Expect(chatapi.StatusCode(err)).To(Equal(http.StatusNotFound))
		})

		It("keeps a structured detail as raw JSON", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, `{"detail":[{"msg":"field required"}]}`)
			}

			_, err := chatapi.New(srv.URL, sess).CreateChat(ctx, "x")
			var apiErr *chatapi.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Detail).To(MatchJSON(`[{"msg":"field required"}]`))
		})

		It("falls back to the status text for an empty body", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}

			_, err := chatapi.New(srv.URL, sess).ListChats(ctx)
			var apiErr *chatapi.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Detail).To(Equal("Bad Gateway"))
		})

		It("does not clear the session on other failures", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}

			_, _ = chatapi.New(srv.URL, sess).ListChats(ctx)
			Expect(sess.clears).To(BeZero())
			Expect(sess.token).To(Equal("tok-1"))
		})
	})

	Describe("Login", func() {
		It("fails when the answer has no access token", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"token_type":"bearer"}`)
			}

			err := chatapi.New(srv.URL, sess).Login(ctx, "ada@example.com", "pw")
			Expect(err).To(MatchError(chatapi.ErrNoAccessToken))
		})

		It("posts form credentials", func() {
			var user, pass string
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.ParseForm()).To(Succeed())
				user, pass = r.PostForm.Get("username"), r.PostForm.Get("password")
				_, _ = io.WriteString(w, `{"access_token":"new","token_type":"bearer"}`)
			}

			sess.token = ""
			Expect(chatapi.New(srv.URL, sess).Login(ctx, "ada@example.com", "pw")).To(Succeed())
			Expect(user).To(Equal("ada@example.com"))
			Expect(pass).To(Equal("pw"))
			Expect(sess.token).To(Equal("new"))
			Expect(sess.target).To(Equal(srv.URL))
		})
	})

	Describe("RenameChat", func() {
		It("rejects an empty title without a request", func() {
			var calls atomic.Int32
			handler = func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
			}

			_, err := chatapi.New(srv.URL, sess).RenameChat(ctx, 1, "   ")
			Expect(err).To(MatchError(chatapi.ErrEmptyTitle))
			Expect(calls.Load()).To(BeZero())
		})
	})

	Describe("Logout", func() {
		It("clears the session locally", func() {
			Expect(chatapi.New(srv.URL, sess).Logout()).To(Succeed())
			Expect(sess.token).To(BeEmpty())
		})
	})
})

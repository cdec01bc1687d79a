package worker

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatline/pkg/eventstream"
	"github.com/papercomputeco/chatline/pkg/storage"
	testutils "github.com/papercomputeco/chatline/pkg/utils/test"
)

var _ = Describe("Worker Pool", func() {
	var pub *testutils.MockPublisher

	BeforeEach(func() {
		pub = &testutils.MockPublisher{}
	})

	It("requires a publisher", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	It("applies defaults", func() {
		wp, err := NewPool(&Config{Publisher: pub})
		Expect(err).NotTo(HaveOccurred())
		defer wp.Close()

		Expect(wp.config.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(cap(wp.queue)).To(Equal(int(defaultJobQueueSize)))
		Expect(wp.config.PublishTimeout).To(Equal(defaultPublishTimeout))
	})

	It("publishes one event per job and drains on Close", func() {
		wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 2})
		Expect(err).NotTo(HaveOccurred())

		for i := range 5 {
			ok := wp.Enqueue(Job{
				Source:    eventstream.EventSource{Responder: "echo"},
				UserID:    1,
				Message:   &storage.Message{ID: int64(i + 1), ChatID: 9, Role: storage.RoleAssistant, Content: "hi"},
				Streaming: true,
			})
			Expect(ok).To(BeTrue())
		}
		wp.Close()

		events := pub.Published()
		Expect(events).To(HaveLen(5))
		for _, e := range events {
			Expect(e.Message.ChatID).To(Equal(int64(9)))
			Expect(e.Message.UserID).To(Equal(int64(1)))
			Expect(e.Message.Streaming).To(BeTrue())
			Expect(e.Source.Responder).To(Equal("echo"))
		}
	})

	It("drops jobs when the queue is full", func() {
		pub.Block = make(chan struct{})
		wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		msg := &storage.Message{ID: 1, ChatID: 1}
		Expect(wp.Enqueue(Job{Message: msg})).To(BeTrue())

		// The single worker holds one job, the queue holds the next.
		Eventually(func() bool { return wp.Enqueue(Job{Message: msg}) }).Should(BeTrue())
		Expect(wp.Enqueue(Job{Message: msg})).To(BeFalse())

		close(pub.Block)
		wp.Close()
		Expect(pub.Published()).To(HaveLen(2))
	})

	It("ignores jobs without a message", func() {
		wp, err := NewPool(&Config{Publisher: pub})
		Expect(err).NotTo(HaveOccurred())
		Expect(wp.Enqueue(Job{})).To(BeFalse())
		wp.Close()
	})

	It("keeps going after a publish failure", func() {
		pub.Err = errors.New("broker down")
		wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(Job{Message: &storage.Message{ID: 1}})).To(BeTrue())
		Expect(wp.Enqueue(Job{Message: &storage.Message{ID: 2}})).To(BeTrue())
		wp.Close()

		Expect(pub.Published()).To(BeEmpty())
	})
})

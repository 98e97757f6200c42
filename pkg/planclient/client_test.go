package planclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *Client
		handler  http.HandlerFunc
		lastPath string
		lastID   string
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.RequestURI()
			lastID = r.Header.Get(RequestIDHeader)
			handler(w, r)
		}))
		client = NewClient(&ClientConfig{BaseURL: server.URL + "/", Timeout: 2 * time.Second}, nil)
	})

	AfterEach(func() {
		server.Close()
	})

	respond := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	}

	Context("listing plans for an engine", func() {
		It("returns plans in server order", func() {
			handler = respond(http.StatusOK, `[{"id":5,"name":"small"},{"id":"6","name":"large"}]`)

			plans, err := client.PlansForEngine(context.Background(), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastPath).To(Equal("/plan/?engine_id=1"))
			Expect(lastID).NotTo(BeEmpty())
			Expect(plans).To(Equal([]formdeps.Option{
				{ID: 5, Label: "small"},
				{ID: 6, Label: "large"},
			}))
		})

		It("returns an empty list for an engine without plans", func() {
			handler = respond(http.StatusOK, `[]`)

			plans, err := client.PlansForEngine(context.Background(), 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(plans).To(BeEmpty())
		})

		It("surfaces an error payload as an application error", func() {
			handler = respond(http.StatusOK, `{"error":"engine required"}`)

			_, err := client.PlansForEngine(context.Background(), 1)
			var appErr *formdeps.ApplicationError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(formdeps.Notice(err)).To(Equal("engine required"))
		})

		It("treats a non-2xx status as a transport error", func() {
			handler = respond(http.StatusInternalServerError, `{"error":"database is down"}`)

			_, err := client.PlansForEngine(context.Background(), 1)
			var transportErr *formdeps.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(formdeps.Notice(err)).To(Equal(formdeps.InvalidResponseNotice))
		})

		It("treats a malformed body as a transport error", func() {
			handler = respond(http.StatusOK, `<html>`)

			_, err := client.PlansForEngine(context.Background(), 1)
			var transportErr *formdeps.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
		})

		It("treats an object without an error as a transport error", func() {
			handler = respond(http.StatusOK, `{"plans":[]}`)

			_, err := client.PlansForEngine(context.Background(), 1)
			var transportErr *formdeps.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
		})

		It("does not treat an empty error message as an application error", func() {
			handler = respond(http.StatusOK, `{"error":""}`)

			_, err := client.PlansForEngine(context.Background(), 1)
			Expect(formdeps.Notice(err)).To(Equal(formdeps.InvalidResponseNotice))
		})
	})

	Context("listing environments for a plan", func() {
		It("returns the plan environments", func() {
			handler = respond(http.StatusOK, `{"id":5,"name":"small","environments":[{"id":9,"name":"dev"},{"id":10,"name":"prod"}]}`)

			envs, err := client.EnvironmentsForPlan(context.Background(), 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastPath).To(Equal("/plan/5/"))
			Expect(envs).To(Equal([]formdeps.Option{
				{ID: 9, Label: "dev"},
				{ID: 10, Label: "prod"},
			}))
		})

		It("surfaces an error payload as an application error", func() {
			handler = respond(http.StatusOK, `{"error":"plan 5 not found"}`)

			_, err := client.EnvironmentsForPlan(context.Background(), 5)
			Expect(formdeps.Notice(err)).To(Equal("plan 5 not found"))
		})

		It("ignores an empty error message next to the environments", func() {
			handler = respond(http.StatusOK, `{"id":5,"error":"","environments":[{"id":10,"name":"prod"}]}`)

			envs, err := client.EnvironmentsForPlan(context.Background(), 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(envs).To(Equal([]formdeps.Option{{ID: 10, Label: "prod"}}))
		})

		It("rejects a response without environments", func() {
			handler = respond(http.StatusOK, `{"id":5}`)

			_, err := client.EnvironmentsForPlan(context.Background(), 5)
			Expect(formdeps.Notice(err)).To(Equal(formdeps.InvalidResponseNotice))
		})
	})

	Context("when the server is unreachable", func() {
		It("returns a transport error", func() {
			server.Close()

			_, err := client.Engines(context.Background())
			var transportErr *formdeps.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
		})
	})

	Context("when the context is canceled", func() {
		It("returns a transport error wrapping the cancellation", func() {
			handler = respond(http.StatusOK, `[]`)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := client.Engines(ctx)
			Expect(err).To(MatchError(ContainSubstring("request failed")))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("checking health", func() {
		It("decodes the health document", func() {
			handler = respond(http.StatusOK, `{"status":"alive"}`)

			health, err := client.Health(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(lastPath).To(Equal("/healthz"))
			Expect(health).To(HaveKeyWithValue("status", "alive"))
		})

		It("reports a server that is not ready", func() {
			handler = respond(http.StatusServiceUnavailable, `{"status":"not ready","error":"sql: database is closed"}`)

			_, err := client.Ready(context.Background())
			Expect(lastPath).To(Equal("/readyz"))
			var transportErr *formdeps.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
		})
	})
})

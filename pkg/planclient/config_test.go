package planclient

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClientConfigFromEnv", func() {
	It("uses defaults when nothing is set", func() {
		GinkgoT().Setenv("DBAAS_SERVER", "")
		GinkgoT().Setenv("DBAAS_CLIENT_TIMEOUT", "")

		cfg := ClientConfigFromEnv()
		Expect(cfg.BaseURL).To(Equal("http://localhost:8080"))
		Expect(cfg.Timeout).To(Equal(30 * time.Second))
	})

	DescribeTable("reads the timeout",
		func(value string, want time.Duration) {
			GinkgoT().Setenv("DBAAS_CLIENT_TIMEOUT", value)
			Expect(ClientConfigFromEnv().Timeout).To(Equal(want))
		},
		Entry("as a duration", "1m30s", 90*time.Second),
		Entry("as seconds", "5", 5*time.Second),
		Entry("ignoring garbage", "soon", 30*time.Second),
		Entry("ignoring non-positive values", "-2", 30*time.Second),
	)

	It("reads the server and trims the trailing slash", func() {
		GinkgoT().Setenv("DBAAS_SERVER", "http://catalogue:9000/")

		cfg := ClientConfigFromEnv()
		Expect(cfg.BaseURL).To(Equal("http://catalogue:9000/"))
		Expect(cfg.baseURL()).To(Equal("http://catalogue:9000"))
	})
})

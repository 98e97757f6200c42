package planclient

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPlanClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Plan Client Suite")
}

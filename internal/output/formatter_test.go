package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportTotals(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 2, r.ProposalCount())
	assert.Equal(t, 2*time.Second, r.Duration())
	assert.Zero(t, (&Report{}).ProposalCount())
}

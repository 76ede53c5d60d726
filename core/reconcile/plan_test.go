package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	var d Diff
	Field(&d, "name", "web1", "web1")
	Field(&d, "status", "offline", "active")
	Field(&d, "vcpus", 2.0, 2.0)
	Field(&d, "memory", 4096, 2048)
	d.Check("tags", true)

	assert.Equal(t, []string{"status", "memory"}, d.Changed())
	assert.Equal(t, Update("status", "memory"), d.Decision())
}

func TestDiff_Empty(t *testing.T) {
	var d Diff
	Field(&d, "name", "a", "a")
	assert.Equal(t, Noop(), d.Decision())
	assert.False(t, d.Decision().Mutates())
}

func TestDecision_Mutates(t *testing.T) {
	assert.True(t, Create().Mutates())
	assert.True(t, Update("x").Mutates())
	assert.True(t, Delete().Mutates())
	assert.False(t, Skip("no vm").Mutates())
	assert.False(t, Noop().Mutates())
}

func TestNameMatches(t *testing.T) {
	assert.True(t, NameMatches("web1", "web1", "web1_[i-1]"))
	assert.True(t, NameMatches("web1_[i-1]", "web1", "web1_[i-1]"))
	assert.False(t, NameMatches("web2", "web1", "web1_[i-1]"))
	assert.False(t, NameMatches("", "web1", ""))
}

func TestSummary_Totals(t *testing.T) {
	s := Summary{}
	s.Add(StageSummary{Stage: "instances", Created: 1, Unchanged: 3})
	s.Add(StageSummary{Stage: "disks", Updated: 2, Skipped: 1})
	s.Add(StageSummary{Stage: "vrfs", Deleted: 4})

	total := s.Totals()
	assert.Equal(t, 1, total.Created)
	assert.Equal(t, 2, total.Updated)
	assert.Equal(t, 3, total.Unchanged)
	assert.Equal(t, 1, total.Skipped)
	assert.Equal(t, 4, total.Deleted)
	assert.Equal(t, 7, total.Mutations())
}

func TestSummary_Lifecycle(t *testing.T) {
	a := NewSummary("sync", "cl1", true)
	b := NewSummary("sync", "cl1", true)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.True(t, a.DryRun)
	assert.True(t, a.FinishedAt.IsZero())

	a.Finish(nil)
	assert.False(t, a.FinishedAt.IsZero())
	assert.Empty(t, a.Error)

	b.Finish(errors.New("boom"))
	assert.Equal(t, "boom", b.Error)
}

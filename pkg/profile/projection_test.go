package profile_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/profile"
	"github.com/stretchr/testify/assert"
)

var fields = []profile.Field{
	{Name: "name", Required: true},
	{Name: "age", Required: true},
	{Name: "location", Required: true, Multi: true},
	{Name: "channel"},
	{Name: "interests", Multi: true},
}

func TestProjection_IsComplete(t *testing.T) {
	p := profile.New(fields)
	prof := domain.Profile{}
	assert.False(t, p.IsComplete(prof))

	prof["name"] = domain.TextValue("Ann")
	prof["age"] = domain.TextValue("30")
	prof["location"] = domain.ItemsValue(nil)
	assert.False(t, p.IsComplete(prof), "empty item set does not count")

	prof["location"] = domain.ItemsValue(domain.NewSelection("StationA"))
	assert.True(t, p.IsComplete(prof))

	prof["channel"] = domain.TextValue("")
	assert.True(t, p.IsComplete(prof), "optional fields never affect completeness")
}

func TestProjection_Progress(t *testing.T) {
	p := profile.New(fields)
	prof := domain.Profile{
		"name":      domain.TextValue("Ann"),
		"interests": domain.ItemsValue(domain.NewSelection("chess")),
		"channel":   domain.TextValue("   "),
	}
	assert.Equal(t, domain.Progress{RequiredDone: 1, RequiredTotal: 3, OptionalDone: 1, OptionalTotal: 2}, p.Progress(prof))

	missing := p.Missing(prof)
	assert.Len(t, missing, 2)
	assert.Equal(t, "age", missing[0].Name)
}

func TestProjection_DuplicateFieldsIgnored(t *testing.T) {
	p := profile.New([]profile.Field{{Name: "a", Required: true}, {Name: "a"}, {Name: ""}})
	assert.Len(t, p.Fields(), 1)
	f, ok := p.Field("a")
	assert.True(t, ok)
	assert.True(t, f.Required)
	assert.Equal(t, "a", f.DisplayLabel())
}

// TestProjection_CommitMonotonicity checks that committing non-empty required values
// in any order never flips completeness back to false.
func TestProjection_CommitMonotonicity(t *testing.T) {
	p := profile.New(fields)
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 200; run++ {
		prof := domain.Profile{}
		wasComplete := false
		for step := 0; step < 12; step++ {
			f := fields[rng.Intn(len(fields))]
			if f.Multi {
				prof[f.Name] = domain.ItemsValue(domain.NewSelection("x"))
			} else {
				prof[f.Name] = domain.TextValue("v")
			}
			complete := p.IsComplete(prof)
			if wasComplete {
				assert.True(t, complete, "run %d step %d", run, step)
			}
			wasComplete = complete
		}
	}
}

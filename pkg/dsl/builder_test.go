package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/graph"
)

func profileFlow() *Builder {
	b := New()

	b.Add("start").
		Say("Hello!").
		Next("ask_name")

	b.Add("ask_name").
		Ask("name", "What is your name?").
		Label("Name").
		Required().
		Validate(domain.Validation{MinLength: 2}).
		Next("gender")

	b.Add("gender").
		Choose("Your gender?").
		Field("gender").
		Option("m", "Man").
		OptionValue("w", "Woman", "female").
		Goto("later", "Later", "stations").
		Next("stations")

	b.Add("stations").
		Pick("location", "Where?").
		Catalog("metro").
		Skippable().
		Next("publish")

	b.Add("publish").
		Do("publish_profile").
		Next("home")

	b.Add("home").
		Choose("All set.").
		Run("again", "Publish again", "publish_profile").
		Link("site", "Website", "https://example.org").
		Terminal()

	return b
}

func TestBuilder_Nodes(t *testing.T) {
	nodes := profileFlow().Nodes()
	require.Len(t, nodes, 6)
	assert.Equal(t, "start", nodes[0].ID, "insertion order")

	ask := nodes[1]
	assert.Equal(t, domain.KindFreeText, ask.Kind)
	assert.Equal(t, "name", ask.Field)
	assert.True(t, ask.Required)
	require.NotNil(t, ask.Validation)
	assert.Equal(t, 2, ask.Validation.MinLength)

	gender := nodes[2]
	assert.Equal(t, domain.KindSingleChoice, gender.Kind)
	assert.Equal(t, []domain.Option{
		{ID: "m", Text: "Man"},
		{ID: "w", Text: "Woman", Value: "female"},
		{ID: "later", Text: "Later", Action: domain.Goto("stations")},
	}, gender.Options)

	assert.Equal(t, "metro", nodes[3].CatalogKey())
	assert.True(t, nodes[3].Skippable)
	assert.Equal(t, domain.KindAction, nodes[4].Kind)
	assert.Equal(t, "publish_profile", nodes[4].Command)
	assert.Empty(t, nodes[5].Next)
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	b.Add("a").Say("first")
	b.Add("a").Next("b")

	nodes := b.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "first", nodes[0].Prompt)
	assert.Equal(t, "b", nodes[0].Next)
}

func TestBuilder_Graph(t *testing.T) {
	g, err := profileFlow().Graph(graph.WithHome("start"))
	require.NoError(t, err)

	assert.Equal(t, "start", g.Entry())
	assert.Equal(t, "start", g.Home())
	assert.Equal(t, 6, g.Len())

	owner, err := g.OwnerOf("gender")
	require.NoError(t, err)
	assert.Equal(t, "gender", owner.ID)

	home, err := g.Resolve("home")
	require.NoError(t, err)
	assert.Equal(t, domain.URL("https://example.org"), home.Options[1].Action)
}

func TestBuilder_Empty(t *testing.T) {
	_, err := New().Graph()
	assert.Error(t, err)
}

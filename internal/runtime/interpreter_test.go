package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/rapport/internal/runtime"
	"github.com/aretw0/rapport/pkg/adapters/file"
	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/graph"
	"github.com/aretw0/rapport/pkg/registry"
	"github.com/aretw0/rapport/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	in       *runtime.Interpreter
	manager  *session.Manager
	store    *memory.Store
	commands *registry.Registry
}

func newFixture(t *testing.T, opts ...runtime.Option) *fixture {
	t.Helper()
	loader, err := file.NewLoader("../../examples/dating/graph.yaml")
	require.NoError(t, err)
	g, err := graph.Load(loader)
	require.NoError(t, err)
	cat, err := catalog.Load("../../examples/dating/catalog.yaml")
	require.NoError(t, err)

	store := memory.NewStore()
	mgr := session.NewManager(store, session.WithEntry(g.Entry()))
	reg := registry.NewRegistry()
	reg.Register("publish_profile", registry.Noop)

	opts = append([]runtime.Option{runtime.WithCommands(reg)}, opts...)
	return &fixture{
		in:       runtime.NewInterpreter(g, cat, mgr, opts...),
		manager:  mgr,
		store:    store,
		commands: reg,
	}
}

func (f *fixture) send(t *testing.T, ev domain.Event) domain.Instruction {
	t.Helper()
	instr, err := f.in.Dispatch(context.Background(), "u1", ev)
	require.NoError(t, err)
	return instr
}

func (f *fixture) sendAll(t *testing.T, events []domain.Event) domain.Instruction {
	t.Helper()
	var last domain.Instruction
	for _, ev := range events {
		last = f.send(t, ev)
	}
	return last
}

func (f *fixture) session(t *testing.T) *domain.Session {
	t.Helper()
	s, err := f.manager.Get(context.Background(), "u1")
	require.NoError(t, err)
	return s
}

func toLocation() []domain.Event {
	return []domain.Event{
		domain.FreeText("friend told me"),
		domain.OptionSelected("join_yes"),
		domain.OptionSelected("female"),
		domain.FreeText("Ann"),
		domain.FreeText("30"),
	}
}

func toIdle() []domain.Event {
	return append(toLocation(),
		domain.CategoryOpened("lineX"),
		domain.MultiToggle("lineX", "StationA"),
		domain.DoneRequested("location"),
		domain.MultiToggle("games", "chess"),
		domain.DoneRequested("interests"),
		domain.SkipRequested(),
		domain.FreeText("@ann_channel"),
	)
}

func TestInterpreter_FirstAnswerAdvances(t *testing.T) {
	f := newFixture(t)

	instr := f.send(t, domain.FreeText("  friend told me "))

	s := f.session(t)
	assert.Equal(t, "friend told me", s.Profile.Get("source").Text)
	assert.Equal(t, "join", s.CurrentNodeID)
	assert.Equal(t, []string{"start"}, s.History)

	assert.Equal(t, domain.InstructionPrompt, instr.Kind)
	assert.Equal(t, "join", instr.NodeID)
	require.Len(t, instr.Options, 2)
	assert.Equal(t, "join_yes", instr.Options[0].ID)
	assert.Equal(t, "https://example.org/rules", instr.Options[1].URL)
	assert.True(t, instr.CanGoBack)
	assert.Equal(t, 1, instr.Projection.Progress.RequiredDone)
	assert.Equal(t, 5, instr.Projection.Progress.RequiredTotal)
}

func TestInterpreter_MultiSelect(t *testing.T) {
	t.Run("Toggle and done", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toLocation())

		instr := f.send(t, domain.MultiToggle("lineX", "StationA"))
		assert.Equal(t, "lineX", instr.Category)
		assert.Equal(t, []string{"StationA"}, instr.Selected)

		instr = f.send(t, domain.MultiToggle("lineX", "StationB"))
		assert.Equal(t, []string{"StationA", "StationB"}, instr.Selected)
		assert.True(t, f.session(t).Profile.Get("location").IsEmpty(), "nothing committed before done")

		instr = f.send(t, domain.DoneRequested("location"))
		s := f.session(t)
		assert.Equal(t, domain.Selection{"StationA", "StationB"}, s.Profile.Get("location").Items)
		assert.Equal(t, "interests", s.CurrentNodeID)
		assert.Empty(t, s.Scratch["location"])
		assert.Equal(t, "interests", instr.NodeID)
		assert.Empty(t, instr.Category)
	})

	t.Run("Exclusive item clears the rest", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toLocation())
		f.send(t, domain.MultiToggle("lineX", "StationA"))
		f.send(t, domain.MultiToggle("lineX", "StationB"))

		instr := f.send(t, domain.MultiToggle("special", "NotInCity"))
		assert.Equal(t, []string{"NotInCity"}, instr.Selected)
		assert.Equal(t, domain.Selection{"NotInCity"}, f.session(t).Scratch["location"])

		instr = f.send(t, domain.MultiToggle("lineY", "StationD"))
		assert.Equal(t, []string{"StationD"}, instr.Selected)
	})

	t.Run("Done with nothing selected", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toLocation())
		f.send(t, domain.MultiToggle("lineX", "StationA"))
		f.send(t, domain.DoneRequested("location"))

		instr := f.send(t, domain.DoneRequested("interests"))
		assert.Equal(t, domain.InstructionRetry, instr.Kind)
		assert.Contains(t, instr.Notices, runtime.DefaultMessages().ChooseOne)
		assert.Equal(t, "interests", f.session(t).CurrentNodeID)
	})

	t.Run("Category screens", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toLocation())

		instr := f.send(t, domain.BackRequested())
		assert.Equal(t, "age", instr.NodeID, "no category open: back pops history")
		f.send(t, domain.FreeText("30"))

		instr = f.send(t, domain.CategoryOpened("lineY"))
		assert.Equal(t, "lineY", instr.Category)
		require.Len(t, instr.Options, 2)
		assert.Equal(t, "Station C", instr.Options[0].Text)

		f.send(t, domain.MultiToggle("lineY", "StationC"))
		instr = f.send(t, domain.BackRequested())
		assert.Equal(t, "location", instr.NodeID)
		assert.Empty(t, instr.Category)
		assert.Equal(t, []string{"StationC"}, instr.Selected, "scratch survives leaving the category")
		require.Len(t, instr.Options, 3)
		assert.Equal(t, "Line X", instr.Options[0].Text)
		assert.True(t, instr.Options[0].Selected, "StationC is also on line X")
		assert.True(t, instr.Options[1].Selected)
		assert.False(t, instr.Options[2].Selected)
	})

	t.Run("Unknown item is ignored", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toLocation())

		instr := f.send(t, domain.MultiToggle("lineX", "StationZ"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)
		instr = f.send(t, domain.CategoryOpened("lineQ"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)
		instr = f.send(t, domain.DoneRequested("age"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)

		s := f.session(t)
		assert.Equal(t, "location", s.CurrentNodeID)
		assert.Empty(t, s.Scratch["location"])
	})
}

func TestInterpreter_EditMode(t *testing.T) {
	t.Run("Rejected edit keeps the old value", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toIdle())

		instr := f.send(t, domain.EditFieldRequested("age"))
		assert.Equal(t, domain.ModeEdit, instr.Mode)
		assert.Equal(t, "age", instr.NodeID)
		assert.Contains(t, instr.Text, "Current value: 30")

		instr = f.send(t, domain.FreeText("130"))
		assert.Equal(t, domain.InstructionRetry, instr.Kind)
		assert.Equal(t, domain.ModeEdit, instr.Mode)
		require.NotEmpty(t, instr.Notices)
		assert.Contains(t, instr.Notices[0], "between 16 and 100")
		assert.Contains(t, instr.Notices[0], "Current value: 30")

		s := f.session(t)
		assert.Equal(t, "30", s.Profile.Get("age").Text)
		assert.Equal(t, domain.ModeEdit, s.Mode)
		assert.Equal(t, "age", s.CurrentNodeID)

		instr = f.send(t, domain.FreeText("31"))
		assert.Equal(t, domain.InstructionIdle, instr.Kind)
		s = f.session(t)
		assert.Equal(t, "31", s.Profile.Get("age").Text)
		assert.Equal(t, domain.ModeFill, s.Mode)
		assert.True(t, s.IsIdle())
		assert.Empty(t, s.History)
	})

	t.Run("Multi-select starts from the committed items", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toIdle())

		instr := f.send(t, domain.EditFieldRequested("location"))
		assert.Equal(t, []string{"StationA"}, instr.Selected)

		f.send(t, domain.MultiToggle("lineX", "StationC"))
		instr = f.send(t, domain.DoneRequested("location"))
		assert.Equal(t, domain.InstructionIdle, instr.Kind)
		assert.Equal(t, domain.Selection{"StationA", "StationC"}, f.session(t).Profile.Get("location").Items)
	})

	t.Run("Back leaves without committing", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toIdle())

		f.send(t, domain.EditFieldRequested("location"))
		f.send(t, domain.MultiToggle("lineX", "StationB"))
		f.send(t, domain.BackRequested())

		s := f.session(t)
		assert.True(t, s.IsIdle())
		assert.Equal(t, domain.ModeFill, s.Mode)
		assert.Equal(t, domain.Selection{"StationA"}, s.Profile.Get("location").Items)
		assert.Empty(t, s.Scratch)
	})

	t.Run("Only from idle", func(t *testing.T) {
		f := newFixture(t)
		f.send(t, domain.FreeText("friend told me"))

		instr := f.send(t, domain.EditFieldRequested("source"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)
		s := f.session(t)
		assert.Equal(t, "join", s.CurrentNodeID)
		assert.Equal(t, domain.ModeFill, s.Mode)
	})

	t.Run("Unknown field", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toIdle())

		instr := f.send(t, domain.EditFieldRequested("shoe_size"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)
		assert.True(t, f.session(t).IsIdle())
	})

	t.Run("Idle buttons reopen fields", func(t *testing.T) {
		f := newFixture(t)
		f.sendAll(t, toIdle())

		instr := f.send(t, domain.OptionSelected("name"))
		assert.Equal(t, "name", instr.NodeID)
		assert.Equal(t, domain.ModeEdit, instr.Mode)
	})
}

func TestInterpreter_CompleteFlow(t *testing.T) {
	f := newFixture(t)
	var published []string
	f.commands.Register("publish_profile", func(ctx context.Context, userID string) (string, error) {
		published = append(published, userID)
		return "", nil
	})

	instr := f.sendAll(t, toIdle())

	assert.Equal(t, []string{"u1"}, published)
	assert.Equal(t, domain.InstructionIdle, instr.Kind)
	assert.Empty(t, instr.NodeID)
	assert.Equal(t, []string{"All set, Ann! Your profile is live."}, instr.Notices)
	assert.Contains(t, instr.Text, "Ann, 30")
	assert.Contains(t, instr.Text, "Gender: Woman")
	assert.Contains(t, instr.Text, "Stations: Station A")
	assert.Contains(t, instr.Text, "Status: -")
	assert.Contains(t, instr.Text, "Channel: ann_channel")
	assert.Len(t, instr.Options, 8)
	assert.True(t, instr.Projection.Complete)

	s := f.session(t)
	assert.True(t, s.IsIdle())
	assert.Empty(t, s.History)
	assert.Equal(t, "ann_channel", s.Profile.Get("channel").Text)
	assert.False(t, s.Profile.Has("status"))
	assert.NotEmpty(t, s.Activity)

	rendered, err := f.in.Render(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionIdle, rendered.Kind)
	assert.Equal(t, instr.Text, rendered.Text)
	assert.Empty(t, rendered.Notices)

	again := f.send(t, domain.BackRequested())
	assert.Equal(t, domain.InstructionNoop, again.Kind, "finished flow has no history")
}

func TestInterpreter_BackNavigation(t *testing.T) {
	f := newFixture(t)
	f.send(t, domain.FreeText("friend told me"))
	f.send(t, domain.OptionSelected("join_yes"))

	instr := f.send(t, domain.BackRequested())
	assert.Equal(t, "join", instr.NodeID)
	instr = f.send(t, domain.BackRequested())
	assert.Equal(t, "start", instr.NodeID)
	assert.False(t, instr.CanGoBack)

	instr = f.send(t, domain.BackRequested())
	assert.Equal(t, domain.InstructionNoop, instr.Kind)
	assert.Equal(t, "start", instr.NodeID)

	// Going back does not undo committed answers.
	assert.Equal(t, "friend told me", f.session(t).Profile.Get("source").Text)
}

func TestInterpreter_SingleChoice(t *testing.T) {
	t.Run("Typed caption", func(t *testing.T) {
		f := newFixture(t)
		f.send(t, domain.FreeText("friend told me"))

		instr := f.send(t, domain.FreeText("yes, LET'S GO"))
		assert.Equal(t, "gender", instr.NodeID)
	})

	t.Run("Link leaves the session in place", func(t *testing.T) {
		f := newFixture(t)
		f.send(t, domain.FreeText("friend told me"))
		before := f.session(t)

		instr := f.send(t, domain.OptionSelected("rules"))
		assert.Equal(t, domain.InstructionLink, instr.Kind)
		assert.Equal(t, "https://example.org/rules", instr.Link)
		assert.Equal(t, "join", instr.NodeID)
		assert.Equal(t, before.UpdatedAt, f.session(t).UpdatedAt, "nothing written")
	})

	t.Run("Unknown option", func(t *testing.T) {
		f := newFixture(t)
		f.send(t, domain.FreeText("friend told me"))

		instr := f.send(t, domain.OptionSelected("maybe"))
		assert.Equal(t, domain.InstructionNoop, instr.Kind)
		assert.Equal(t, "join", instr.NodeID)
	})

	t.Run("Wrong event kind", func(t *testing.T) {
		f := newFixture(t)
		f.send(t, domain.FreeText("friend told me"))

		instr := f.send(t, domain.FreeText("whatever"))
		assert.Equal(t, domain.InstructionRetry, instr.Kind)
		assert.Contains(t, instr.Notices, runtime.DefaultMessages().UseButtons)

		f.send(t, domain.OptionSelected("join_yes"))
		f.send(t, domain.OptionSelected("male"))
		instr = f.send(t, domain.OptionSelected("male"))
		assert.Equal(t, domain.InstructionRetry, instr.Kind, "name is a free text node")
		assert.Contains(t, instr.Notices, runtime.DefaultMessages().TypeAnswer)
	})
}

func TestInterpreter_Skip(t *testing.T) {
	f := newFixture(t)
	f.sendAll(t, toLocation())

	instr := f.send(t, domain.SkipRequested())
	assert.Equal(t, domain.InstructionRetry, instr.Kind)
	assert.Equal(t, "location", instr.NodeID)
	assert.False(t, instr.CanSkip)

	f.send(t, domain.MultiToggle("lineX", "StationA"))
	f.send(t, domain.DoneRequested("location"))
	f.send(t, domain.MultiToggle("games", "go"))
	instr = f.send(t, domain.DoneRequested("interests"))
	assert.Equal(t, "status", instr.NodeID)
	assert.True(t, instr.CanSkip)

	instr = f.send(t, domain.SkipRequested())
	assert.Equal(t, "channel", instr.NodeID)
	assert.False(t, f.session(t).Profile.Has("status"))
}

func TestInterpreter_FreeTextValidation(t *testing.T) {
	f := newFixture(t)
	f.sendAll(t, toLocation()[:3])

	instr := f.send(t, domain.FreeText("A"))
	assert.Equal(t, domain.InstructionRetry, instr.Kind)
	assert.Equal(t, []string{"Please send a name between 2 and 40 characters."}, instr.Notices)
	assert.Equal(t, "name", f.session(t).CurrentNodeID)

	instr = f.send(t, domain.FreeText("Анна"))
	assert.Equal(t, "age", instr.NodeID, "length counts characters, not bytes")
	assert.Equal(t, "How old are you, Анна?", instr.Text)

	instr = f.send(t, domain.FreeText("abc"))
	assert.Equal(t, domain.InstructionRetry, instr.Kind)
	assert.Equal(t, "age", instr.NodeID)
}

func TestInterpreter_CommandFailure(t *testing.T) {
	f := newFixture(t)
	f.commands.Register("publish_profile", func(context.Context, string) (string, error) {
		return "", errors.New("upstream unavailable")
	})

	events := toIdle()
	f.sendAll(t, events[:len(events)-1])

	instr := f.send(t, events[len(events)-1])
	assert.Equal(t, domain.InstructionError, instr.Kind)
	assert.Equal(t, runtime.DefaultMessages().Generic, instr.Text)
	assert.Equal(t, "channel", instr.NodeID)

	s := f.session(t)
	assert.Equal(t, "channel", s.CurrentNodeID)
	assert.False(t, s.Profile.Has("channel"), "the whole step is discarded")
}

func TestInterpreter_MissingExecutor(t *testing.T) {
	f := newFixture(t, runtime.WithCommands(nil))

	events := toIdle()
	instr := f.sendAll(t, events)
	assert.Equal(t, domain.InstructionError, instr.Kind)
	assert.Equal(t, "channel", f.session(t).CurrentNodeID)
}

func TestInterpreter_UnknownCurrentNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broken := domain.NewSession("u2", "ghost")
	require.NoError(t, f.store.Save(ctx, "u2", broken))

	instr, err := f.in.Dispatch(ctx, "u2", domain.FreeText("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionError, instr.Kind)

	instr, err = f.in.Render(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionError, instr.Kind)

	s, err := f.store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "ghost", s.CurrentNodeID)
}

func TestInterpreter_MalformedEvent(t *testing.T) {
	f := newFixture(t)

	instr := f.send(t, domain.Event{Kind: domain.EventMultiToggle, Category: "lineX"})
	assert.Equal(t, domain.InstructionNoop, instr.Kind)
	assert.Equal(t, "start", instr.NodeID)
}

func TestInterpreter_RenderDoesNotCreateSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	instr, err := f.in.Render(ctx, "new-user")
	require.NoError(t, err)
	assert.Equal(t, "start", instr.NodeID)
	assert.Equal(t, "Hi! Before we start: how did you hear about us?", instr.Text)

	ids, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInterpreter_SoftStepsAtEntry(t *testing.T) {
	loader, err := memory.NewFromNodes(
		domain.NodeDefinition{ID: "start", Kind: domain.KindPrompt, Prompt: "Welcome!", Next: "ask"},
		domain.NodeDefinition{ID: "ask", Kind: domain.KindFreeText, Field: "name", Label: "Name", Prompt: "Name?", Next: "bye"},
		domain.NodeDefinition{ID: "bye", Kind: domain.KindPrompt, Prompt: "Bye {name}"},
	)
	require.NoError(t, err)
	g, err := graph.Load(loader)
	require.NoError(t, err)

	store := memory.NewStore()
	in := runtime.NewInterpreter(g, nil, session.NewManager(store))
	ctx := context.Background()

	instr, err := in.Render(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!"}, instr.Notices)
	assert.Equal(t, "ask", instr.NodeID)
	assert.Equal(t, "Name?", instr.Text)

	instr, err = in.Dispatch(ctx, "u1", domain.FreeText("Bob"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionIdle, instr.Kind)
	assert.Equal(t, []string{"Bye Bob"}, instr.Notices)
	assert.Equal(t, "Name: Bob", instr.Text, "no home node: a field summary is shown")
}

func TestInterpreter_LifecycleHooks(t *testing.T) {
	var entered, left, committed []string
	var outcomes []domain.InstructionKind
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
		OnCommit:    func(_ context.Context, e *domain.CommitEvent) { committed = append(committed, e.Field) },
		OnDispatch:  func(_ context.Context, e *domain.DispatchEvent) { outcomes = append(outcomes, e.Outcome) },
	}
	f := newFixture(t, runtime.WithLifecycleHooks(hooks))

	f.send(t, domain.FreeText("friend told me"))
	assert.Equal(t, []string{"join"}, entered)
	assert.Equal(t, []string{"start"}, left)
	assert.Equal(t, []string{"source"}, committed)

	f.send(t, domain.OptionSelected("maybe"))
	assert.Equal(t, []string{"join"}, entered, "ignored events move nowhere")

	assert.Equal(t, []domain.InstructionKind{domain.InstructionPrompt, domain.InstructionNoop}, outcomes)
}

func TestInterpreter_HooksSkippedOnFailure(t *testing.T) {
	var committed []string
	f := newFixture(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) { committed = append(committed, e.Field) },
	}))
	f.commands.Register("publish_profile", func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	})

	events := toIdle()
	f.sendAll(t, events[:len(events)-1])
	before := len(committed)
	f.send(t, events[len(events)-1])
	assert.Len(t, committed, before, "discarded steps fire no hooks")
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Save(context.Context, string, *domain.Session) error {
	return errors.New("disk full")
}

func TestInterpreter_PersistFailureKeepsProgress(t *testing.T) {
	loader, err := file.NewLoader("../../examples/dating/graph.yaml")
	require.NoError(t, err)
	g, err := graph.Load(loader)
	require.NoError(t, err)

	mgr := session.NewManager(failingStore{memory.NewStore()}, session.WithRetry(session.Retry{Attempts: 1}))
	in := runtime.NewInterpreter(g, nil, mgr)
	ctx := context.Background()

	instr, err := in.Dispatch(ctx, "u1", domain.FreeText("friend told me"))
	require.NoError(t, err)
	assert.Equal(t, "join", instr.NodeID)
	assert.Equal(t, 1, mgr.Pending())

	instr, err = in.Dispatch(ctx, "u1", domain.OptionSelected("join_yes"))
	require.NoError(t, err)
	assert.Equal(t, "gender", instr.NodeID, "later events build on the pending session")
}

func TestInterpreter_ConcurrentTogglesAreSerialized(t *testing.T) {
	f := newFixture(t)
	f.sendAll(t, toLocation())
	f.send(t, domain.MultiToggle("lineX", "StationA"))
	f.send(t, domain.DoneRequested("location"))

	items := map[string][]string{
		"games":    {"chess", "go", "poker"},
		"outdoors": {"hiking", "cycling"},
		"culture":  {"cinema", "theatre", "books"},
	}
	var wg sync.WaitGroup
	for cat, list := range items {
		for _, item := range list {
			wg.Add(1)
			go func(cat, item string) {
				defer wg.Done()
				_, err := f.in.Dispatch(context.Background(), "u1", domain.MultiToggle(cat, item))
				assert.NoError(t, err)
			}(cat, item)
		}
	}
	wg.Wait()

	assert.Len(t, f.session(t).Scratch["interests"], 8)
}

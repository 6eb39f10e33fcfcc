/*
Package dsl provides a fluent Go builder for rapport dialogue graphs.

It is an alternative to YAML files for generated graphs and for tests:

	b := dsl.New()

	b.Add("start").
		Ask("name", "What is your name?").
		Label("Name").
		Required().
		Next("gender")

	b.Add("gender").
		Choose("Your gender?").
		Field("gender").
		Option("m", "Man").
		Option("w", "Woman").
		Next("done")

	b.Add("done").
		Say("Thanks, {name}!")

	g, err := b.Graph()
	// ... or b.Build() for a ports.GraphLoader to pass to rapport.WithLoader
*/
package dsl

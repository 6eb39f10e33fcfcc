package rapport_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/dsl"
)

// ExampleNew_memory drives a two-question flow built in Go.
func ExampleNew_memory() {
	b := dsl.New()
	b.Add("start").
		Ask("name", "What is your name?").
		Label("Name").
		Required().
		Next("city")
	b.Add("city").
		Choose("Where do you live, {name}?").
		Field("city").
		Label("City").
		Option("msk", "Moscow").
		Option("spb", "Saint Petersburg")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// Path is empty because the graph comes from a loader.
	engine, err := rapport.New("", rapport.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	instr, err := engine.Render(ctx, "ann")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(instr.Text)

	instr, err = engine.Dispatch(ctx, "ann", domain.FreeText("Ann"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(instr.Text)
	for _, opt := range instr.Options {
		fmt.Println("-", opt.Text)
	}

	instr, err = engine.Dispatch(ctx, "ann", domain.OptionSelected("spb"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(instr.Kind)
	fmt.Println(instr.Text)

	// Output:
	// What is your name?
	// Where do you live, Ann?
	// - Moscow
	// - Saint Petersburg
	// idle
	// Name: Ann
	// City: Saint Petersburg
}

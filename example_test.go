package tendril_test

import (
	"fmt"
	"log"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
)

// Example demonstrates the core dispatch cycle: a pure action folds a
// payload into the state and the app exposes the committed result.
func Example() {
	type counter struct {
		Count int
	}

	// An action is a pure function from (state, payload) to the next
	// state plus any effects to run.
	add := func(state counter, payload any) (counter, []domain.Effect[counter]) {
		n, _ := payload.(int)
		return counter{Count: state.Count + n}, nil
	}

	app, err := tendril.New(counter{})
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Dispatch(add, 2); err != nil {
		log.Fatal(err)
	}
	if err := app.Dispatch(add, 3); err != nil {
		log.Fatal(err)
	}

	fmt.Println(app.State().Count)
	// Output: 5
}

// Example_effects shows an action declaring a follow-up effect. The
// effect runner receives a dispatch handle and feeds the result back in
// as another action.
func Example_effects() {
	type state struct {
		Greeting string
	}

	setGreeting := func(s state, payload any) (state, []domain.Effect[state]) {
		greeting, _ := payload.(string)
		s.Greeting = greeting
		return s, nil
	}

	greet := domain.Effect[state]{
		Runner: func(dispatch domain.Dispatch[state], data any) error {
			name := data.(string)
			return dispatch(setGreeting, "hello "+name)
		},
		Data: "world",
	}

	start := func(s state, _ any) (state, []domain.Effect[state]) {
		return s, []domain.Effect[state]{greet}
	}

	app, err := tendril.New(state{})
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Dispatch(start, nil); err != nil {
		log.Fatal(err)
	}

	fmt.Println(app.State().Greeting)
	// Output: hello world
}

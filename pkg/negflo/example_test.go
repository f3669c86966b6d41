package negflo_test

import (
	"context"
	"fmt"
	"time"

	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

func ExampleRedistribute() {
	acc, block := negflo.Redistribute(-10, []float64{8, 6, 2, 4, 10}, 2)
	fmt.Println(block, acc)
	// Output: [5 4 2 3 6] 0
}

func ExampleForward() {
	pass := negflo.Forward{}.Smooth([]float64{-4, 1, 1, -1, 8, 0}, 1, false)
	fmt.Printf("%.1f leftover=%.1f\n", pass.Series, pass.Leftover)
	// Output: [0.0 1.0 1.0 0.0 7.0 0.0] leftover=0.0
}

func ExampleEngine_Apply() {
	dates := []time.Time{
		time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 6, 0, 0, 0, 0, time.UTC),
	}
	residual, err := timeseries.NewTable(dates, []string{"410001"}, [][]float64{
		{-1, 0, 3, -2, 4, -1},
	})
	if err != nil {
		panic(err)
	}

	e := negflo.New(residual, 2)
	for _, mode := range []negflo.Mode{negflo.ModeBackward, negflo.ModeBackwardNoCarry} {
		e.Reset()
		if err := e.Apply(context.Background(), mode); err != nil {
			panic(err)
		}
		fmt.Printf("%s %.0f overflow=%.0f\n", e.Mode(), e.Residual().Values[0], e.Overflow()["410001"])
	}
	// Output:
	// sm4 [0 0 2 0 2 0] overflow=-1
	// sm5 [0 0 2 0 3 0] overflow=0
}

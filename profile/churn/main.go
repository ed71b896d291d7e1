// Profiling:
// go build ./profile/churn
// go tool pprof -http=":8000" -nodefraction=0.001 ./churn mem.pprof

package main

import (
	"os"

	"github.com/TheBitDrifter/stockroom"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

func main() {
	rounds := 20
	iters := 500
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	archetypes := run(rounds, iters, entities)
	p.Stop()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().
		Int("rounds", rounds).
		Int("iters", iters).
		Int("entities", entities).
		Int("archetypes", archetypes).
		Msg("churn finished")
}

func run(rounds, iters, numEntities int) int {
	var archetypes int
	for range rounds {
		w := stockroom.Factory.NewWorld(stockroom.WithInitialCapacity(numEntities))
		c1 := stockroom.FactoryNewComponent[comp1]()
		c2 := stockroom.FactoryNewComponent[comp2]()
		c3 := stockroom.FactoryNewComponent[comp3](stockroom.WithSparseStorage())
		query := stockroom.Factory.NewQuery().And(c1, c2)

		for range iters {
			spawned, _ := w.SpawnBatch(numEntities, c1.With(comp1{V: 1}), c2.With(comp2{W: 1}))
			for i, e := range spawned {
				if i%2 == 0 {
					w.AddComponent(e, c3)
				}
			}

			cursor := stockroom.Factory.NewCursor(query, w)
			for cursor.Next() {
				a := c1.GetFromCursor(cursor)
				b := c2.GetFromCursor(cursor)
				a.V += b.V
				a.W += b.W
				w.EnqueueDespawn(cursor.Entity())
			}
		}
		archetypes = w.ArchetypeCount()
	}
	return archetypes
}

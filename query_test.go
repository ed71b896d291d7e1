package stockroom

import (
	"testing"
)

// TestQueryFiltering tests the basic query filtering capabilities
func TestQueryFiltering(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health](WithSparseStorage())

	type entitySetup struct {
		components []ComponentValue
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		queryType       string // "and", "or", "not", "complex"
		queryComponents []Component
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp, velComp}, 5},
				{[]ComponentValue{posComp}, 10},
				{[]ComponentValue{velComp}, 15},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp, velComp}, 5},
				{[]ComponentValue{posComp}, 10},
				{[]ComponentValue{velComp}, 15},
			},
			queryType:       "or",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 30, // 5 + 10 + 15
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp, velComp}, 5},
				{[]ComponentValue{posComp}, 10},
				{[]ComponentValue{velComp}, 15},
				{[]ComponentValue{healthComp}, 20},
			},
			queryType:       "not",
			queryComponents: []Component{velComp},
			expectedMatches: 30, // 10 + 20
		},
		{
			name: "Sparse components are part of the signature",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp, healthComp}, 5},
				{[]ComponentValue{posComp}, 10},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, healthComp},
			expectedMatches: 5,
		},
		{
			name: "Unregistered component matches nothing",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp}, 10},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, FactoryNewComponent[struct{ Unused bool }]()},
			expectedMatches: 0,
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]ComponentValue{posComp, velComp, healthComp}, 5},
				{[]ComponentValue{posComp, velComp}, 10},
				{[]ComponentValue{posComp, healthComp}, 15},
				{[]ComponentValue{velComp, healthComp}, 20},
				{[]ComponentValue{posComp}, 25},
				{[]ComponentValue{velComp}, 30},
				{[]ComponentValue{healthComp}, 35},
			},
			queryType:       "complex",
			queryComponents: []Component{posComp, velComp, healthComp},
			expectedMatches: 30, // (P AND V) OR (P AND H) = 10 + 15 + 5 (counted once)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := Factory.NewWorld()
			for _, setup := range tt.entitySetups {
				if _, err := world.SpawnBatch(setup.count, setup.components...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			query := Factory.NewQuery()
			var queryNode QueryNode

			switch tt.queryType {
			case "and":
				queryNode = query.And(tt.queryComponents)
			case "or":
				queryNode = query.Or(tt.queryComponents)
			case "not":
				queryNode = query.Not(tt.queryComponents)
			case "complex":
				// (Position AND Velocity) OR (Position AND Health)
				andQuery1 := query.And(posComp, velComp)
				andQuery2 := query.And(posComp, healthComp)
				queryNode = query.Or(andQuery1, andQuery2)
			}

			cursor := Factory.NewCursor(queryNode, world)
			matchCount := 0
			for cursor.Next() {
				matchCount++
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests the cursor-based entity iteration
func TestQueryWithCursor(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name            string
		entityTypes     [][]ComponentValue
		queryComponents []Component
		expectedCount   int
	}{
		{
			name: "Query with position",
			entityTypes: [][]ComponentValue{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp},
			expectedCount:   20, // 10 + 10
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]ComponentValue{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			queryComponents: []Component{posComp, velComp},
			expectedCount:   10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]ComponentValue{
				{posComp},
				{velComp},
			},
			queryComponents: []Component{healthComp},
			expectedCount:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := Factory.NewWorld()
			for _, componentSet := range tt.entityTypes {
				if _, err := world.SpawnBatch(10, componentSet...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			queryNode := Factory.NewQuery().And(tt.queryComponents)

			// Method 1: Use cursor directly
			cursor := Factory.NewCursor(queryNode, world)
			count1 := 0
			for cursor.Next() {
				count1++
			}

			// Method 2: Use cursor's TotalMatched
			cursor = Factory.NewCursor(queryNode, world)
			count2 := cursor.TotalMatched()

			// Method 3: Range over Entities
			count3 := 0
			for range cursor.Entities() {
				count3++
			}

			if count1 != count2 || count1 != count3 {
				t.Errorf("Cursor counts inconsistent: %d vs %d vs %d", count1, count2, count3)
			}
			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
			if world.Locked() {
				t.Errorf("World still locked after iteration finished")
			}
		})
	}
}

// TestQueryComponentAccess tests accessing component data through queries
func TestQueryComponentAccess(t *testing.T) {
	world := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	for i := 0; i < 10; i++ {
		entity, err := world.Spawn(posComp.With(Position{X: float64(i), Y: float64(i * 2)}))
		if err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
		vel := Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2}
		if err := world.AddComponent(entity, velComp.With(vel)); err != nil {
			t.Fatalf("Failed to add velocity: %v", err)
		}
	}

	queryNode := Factory.NewQuery().And(posComp, velComp)
	cursor := Factory.NewCursor(queryNode, world)

	// Iterate and update positions based on velocities
	for cursor.Next() {
		pos := posComp.GetFromCursor(cursor)
		vel := velComp.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	// Check updated values through entity lookups
	cursor = Factory.NewCursor(queryNode, world)
	for entity := range cursor.Entities() {
		pos, _ := posComp.Get(world, entity)
		vel, _ := velComp.Get(world, entity)

		expectedX := pos.X - vel.X
		expectedY := pos.Y - vel.Y

		// The initial values followed the pattern (i, i*2)
		if !almostEqual(expectedX, vel.X*10, 0.0001) || !almostEqual(expectedY/2, vel.X*10, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X-vel.X, pos.Y-vel.Y, vel.X, vel.Y)
		}
	}
}

// TestCursorSafeAccess tests component access for archetypes that may lack the component
func TestCursorSafeAccess(t *testing.T) {
	world := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	if _, err := world.SpawnBatch(3, posComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	if _, err := world.SpawnBatch(2, posComp, velComp.With(Velocity{X: 1})); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), world)
	withVelocity := 0
	for cursor.Next() {
		ok, vel := velComp.GetFromCursorSafe(cursor)
		if ok != velComp.CheckCursor(cursor) {
			t.Errorf("GetFromCursorSafe and CheckCursor disagree")
		}
		if ok {
			withVelocity++
			if vel.X != 1 {
				t.Errorf("Velocity = %v, want 1", vel.X)
			}
		}
	}
	if withVelocity != 2 {
		t.Errorf("Found velocity on %d entities, want 2", withVelocity)
	}
}

// Helper function for float comparisons
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

package stockroom

import (
	"testing"
)

// TestEntityDestruction tests destroying entities in bulk
func TestEntityDestruction(t *testing.T) {
	world := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()

	entities, err := world.SpawnBatch(10, posComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	err = world.DestroyEntities(entities[0], entities[2], entities[4], entities[6], entities[8])
	if err != nil {
		t.Fatalf("Failed to destroy entities: %v", err)
	}

	cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), world)
	count := 0
	for cursor.Next() {
		count++
	}

	if count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}
	for i, e := range entities {
		if world.Contains(e) != (i%2 == 1) {
			t.Errorf("Contains(%v) = %v after destruction", e, world.Contains(e))
		}
	}
}

// TestLockBits tests the lock bits and the deferred spawn queue
func TestLockBits(t *testing.T) {
	tests := []struct {
		name      string
		lockBits  []uint32
		unlockIdx int    // Index of bit to unlock for midway test
		checks    []bool // Expected lock state at each check
	}{
		{
			name:      "Single lock",
			lockBits:  []uint32{1},
			unlockIdx: 0,
			checks:    []bool{true, false},
		},
		{
			name:      "Multiple locks",
			lockBits:  []uint32{1, 2, 3},
			unlockIdx: 1,
			checks:    []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := Factory.NewWorld()
			posComp := FactoryNewComponent[Position]()

			for _, bit := range tt.lockBits {
				world.AddLock(bit)
			}

			if world.Locked() != tt.checks[0] {
				t.Errorf("Initial lock state: %v, want %v", world.Locked(), tt.checks[0])
			}

			for range 5 {
				if _, err := world.EnqueueSpawn(posComp); err != nil {
					t.Fatalf("EnqueueSpawn failed: %v", err)
				}
			}

			world.RemoveLock(tt.lockBits[tt.unlockIdx])

			if world.Locked() != tt.checks[1] {
				t.Errorf("Mid-operation lock state: %v, want %v", world.Locked(), tt.checks[1])
			}

			for i, bit := range tt.lockBits {
				if i != tt.unlockIdx {
					world.RemoveLock(bit)
				}
			}

			if world.Locked() != tt.checks[len(tt.checks)-1] {
				t.Errorf("Final lock state: %v, want %v", world.Locked(), tt.checks[len(tt.checks)-1])
			}

			cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), world)
			count := 0
			for cursor.Next() {
				count++
			}

			if count != 5 {
				t.Errorf("Entity count after unlocking: %d, want 5", count)
			}
		})
	}
}

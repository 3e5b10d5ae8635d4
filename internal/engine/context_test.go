package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harperclay/recollect/internal/memory"
)

func TestAssembleContextEmptyPassthrough(t *testing.T) {
	assert.Equal(t, "hello", AssembleContext("hello", nil))
	assert.Equal(t, "hello", AssembleContext("hello", []*memory.Memory{}))
}

func TestAssembleContextFormat(t *testing.T) {
	created := time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)
	memories := []*memory.Memory{
		{Content: "keys on the counter", CreatedAt: created},
		{Content: "wallet in the car", CreatedAt: created},
	}

	got := AssembleContext("Where did I put my keys?", memories)

	want := "Where did I put my keys?\n\n" +
		"[Relevant memories found:\n" +
		"- keys on the counter (saved 3/9/2026)\n" +
		"- wallet in the car (saved 3/9/2026)]"
	assert.Equal(t, want, got)
}

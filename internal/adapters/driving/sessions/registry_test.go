package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestRegistry_GetCreatesAndReuses(t *testing.T) {
	r := New(func() *domain.Session { return domain.NewSession("generated") }, 0)

	s1 := r.Get("")
	assert.Equal(t, "generated", s1.ID)

	s2 := r.Get("named")
	assert.Equal(t, "named", s2.ID)
	assert.Same(t, s2, r.Get("named"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictsIdle(t *testing.T) {
	now := time.Unix(0, 0)
	r := New(func() *domain.Session { return domain.NewSession("x") }, time.Minute)
	r.now = func() time.Time { return now }

	r.Get("old")
	now = now.Add(2 * time.Minute)
	r.Get("fresh")

	_, ok := r.Lookup("old")
	assert.False(t, ok)
	_, ok = r.Lookup("fresh")
	assert.True(t, ok)
}

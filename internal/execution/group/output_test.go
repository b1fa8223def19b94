package group_test

import (
	"testing"

	"github.com/catharsys/anybase/internal/execution/group"
	"github.com/stretchr/testify/assert"
)

func TestOutput_Cursor(t *testing.T) {
	o := group.NewOutput()
	assert.False(t, o.HasNew())

	o.Add("one")
	o.Add("two")
	o.Add("three")

	assert.Equal(t, 3, o.Len())
	assert.Equal(t, "two", o.Line(1))
	assert.True(t, o.HasNew())

	line, ok := o.Next()
	assert.True(t, ok)
	assert.Equal(t, "one", line)
	assert.Equal(t, 1, o.NextLine())

	assert.Equal(t, []string{"two", "three"}, o.ReadNew())
	assert.False(t, o.HasNew())

	_, ok = o.Next()
	assert.False(t, ok)

	o.Rewind(2)
	assert.Equal(t, 1, o.NextLine())

	o.Rewind(10)
	assert.Equal(t, 0, o.NextLine())

	o.Next()
	o.Rewind(0)
	assert.Equal(t, 0, o.NextLine())
}

func TestOutput_Clear(t *testing.T) {
	o := group.NewOutput()
	o.Add("one")
	o.Next()

	o.Clear()

	assert.Equal(t, 0, o.Len())
	assert.Equal(t, 0, o.NextLine())
	assert.Empty(t, o.Lines())
}

func TestOutput_LinesIsCopy(t *testing.T) {
	o := group.NewOutput()
	o.Add("one")

	lines := o.Lines()
	lines[0] = "changed"

	assert.Equal(t, "one", o.Line(0))
}

package handler_test

import (
	"testing"

	"github.com/catharsys/anybase/internal/execution/handler"
	"github.com/stretchr/testify/assert"
)

func TestHandler_New_RegistersGivenFuncs(t *testing.T) {
	h := handler.New(handler.Funcs{
		StdOut: func(string) {},
		Ended:  func(int, string) {},
	})

	assert.False(t, h.HasPreStart())
	assert.False(t, h.HasPostStart())
	assert.True(t, h.HasStdOut())
	assert.True(t, h.HasEnded())
	assert.False(t, h.HasPollTerminate())
}

func TestHandler_AddNil_IsIgnored(t *testing.T) {
	h := handler.New(handler.Funcs{})

	h.AddPreStart(nil)
	h.AddStdOut(nil)

	assert.False(t, h.HasPreStart())
	assert.False(t, h.HasStdOut())
}

func TestHandler_InvokesAllInRegistrationOrder(t *testing.T) {
	var calls []string

	h := handler.New(handler.Funcs{
		PreStart: func(cmd []string) { calls = append(calls, "pre1:"+cmd[0]) },
	})
	h.AddPreStart(func(cmd []string) { calls = append(calls, "pre2:"+cmd[0]) })
	h.AddPostStart(func(cmd []string, pid int) { calls = append(calls, "post") })
	h.AddStdOut(func(line string) { calls = append(calls, "out1:"+line) })
	h.AddStdOut(func(line string) { calls = append(calls, "out2:"+line) })
	h.AddEnded(func(code int, msg string) { calls = append(calls, "ended:"+msg) })

	h.PreStart([]string{"echo"})
	h.PostStart([]string{"echo"}, 42)
	h.StdOut("x")
	h.Ended(1, "boom")

	assert.Equal(t, []string{"pre1:echo", "pre2:echo", "post", "out1:x", "out2:x", "ended:boom"}, calls)
}

func TestHandler_PollTerminate_ShortCircuits(t *testing.T) {
	var polled []int

	h := handler.New(handler.Funcs{})
	h.AddPollTerminate(func() bool { polled = append(polled, 1); return false })
	h.AddPollTerminate(func() bool { polled = append(polled, 2); return true })
	h.AddPollTerminate(func() bool { polled = append(polled, 3); return true })

	assert.True(t, h.PollTerminate())
	assert.Equal(t, []int{1, 2}, polled)
}

func TestHandler_PollTerminate_FalseWithoutCallbacks(t *testing.T) {
	h := handler.New(handler.Funcs{})

	assert.False(t, h.PollTerminate())
}

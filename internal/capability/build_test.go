package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubprocess struct {
	calls []fakeCall
	err   error
}

type fakeCall struct {
	dir  string
	name string
	args []string
}

func (f *fakeSubprocess) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, fakeCall{dir: dir, name: name, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ok"), nil
}

func TestCommandBuild_DefaultsToMakeBuild(t *testing.T) {
	sub := &fakeSubprocess{}
	b := NewCommandBuild(sub)

	require.NoError(t, b.Build(context.Background(), "/repos/core"))
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "make", sub.calls[0].name)
	assert.Equal(t, []string{"build"}, sub.calls[0].args)
	assert.Equal(t, "/repos/core", sub.calls[0].dir)
}

func TestCommandBuild_CustomCommand(t *testing.T) {
	sub := &fakeSubprocess{}
	b := NewCommandBuild(sub, "go", "build", "./...")

	require.NoError(t, b.Build(context.Background(), "/repos/core"))
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "go", sub.calls[0].name)
	assert.Equal(t, []string{"build", "./..."}, sub.calls[0].args)
}

func TestCommandBuild_PropagatesSubprocessError(t *testing.T) {
	sub := &fakeSubprocess{err: errors.New("exit status 1")}
	b := NewCommandBuild(sub)

	err := b.Build(context.Background(), "/repos/core")
	assert.ErrorIs(t, err, sub.err)
}

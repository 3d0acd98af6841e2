package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTarget is an in-memory Target used to exercise Publish's
// skip-if-exists-unless-forced logic without reaching any real cloud API.
type fakeTarget struct {
	objects map[string][]byte
	uploads int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{objects: make(map[string][]byte)}
}

func (f *fakeTarget) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeTarget) Upload(_ context.Context, key string, data []byte) error {
	f.uploads++
	f.objects[key] = data
	return nil
}

func TestPublishUploadsMissingKey(t *testing.T) {
	target := newFakeTarget()

	err := Publish(context.Background(), target, "releases/v2/update.pkg", []byte("payload"), false)
	require.NoError(t, err)
	require.Equal(t, 1, target.uploads)
	require.Equal(t, []byte("payload"), target.objects["releases/v2/update.pkg"])
}

func TestPublishSkipsExistingKeyUnlessForced(t *testing.T) {
	target := newFakeTarget()
	target.objects["releases/v2/update.pkg"] = []byte("already here")

	err := Publish(context.Background(), target, "releases/v2/update.pkg", []byte("new payload"), false)
	require.NoError(t, err)
	require.Equal(t, 0, target.uploads)
	require.Equal(t, []byte("already here"), target.objects["releases/v2/update.pkg"])
}

func TestPublishOverwritesWhenForced(t *testing.T) {
	target := newFakeTarget()
	target.objects["releases/v2/update.pkg"] = []byte("already here")

	err := Publish(context.Background(), target, "releases/v2/update.pkg", []byte("new payload"), true)
	require.NoError(t, err)
	require.Equal(t, 1, target.uploads)
	require.Equal(t, []byte("new payload"), target.objects["releases/v2/update.pkg"])
}

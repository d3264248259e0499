package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lgu-records/recordkeeper/internal/logging"
)

func TestAdd(t *testing.T) {
	s := New(logging.Discard())
	noop := func(context.Context) error { return nil }

	assert.NoError(t, s.Add("backup", "", noop))
	assert.Equal(t, 0, s.Jobs())

	assert.NoError(t, s.Add("backup", "0 2 * * *", noop))
	assert.NoError(t, s.Add("backup", "@daily", noop))
	assert.Equal(t, 2, s.Jobs())

	assert.Error(t, s.Add("backup", "every tuesday", noop))

	s.Start()
	s.Stop()
}

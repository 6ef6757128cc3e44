package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfraWrapsOnce(t *testing.T) {
	base := errors.New("connection refused")
	err := Infra("reservation.create", base)

	assert.True(t, IsInfra(err))
	assert.ErrorIs(t, err, base)
	assert.Same(t, err, Infra("outer", err))
	assert.Nil(t, Infra("noop", nil))
}

func TestIsInfraThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Infra("rating.create", errors.New("boom")))
	assert.True(t, IsInfra(err))
	assert.False(t, IsInfra(errors.New("plain")))
}

func TestResultKinds(t *testing.T) {
	assert.True(t, Created(7, "done").OK())
	assert.Equal(t, int64(7), Created(7, "done").ID)
	assert.False(t, Conflict("taken").OK())
	assert.Equal(t, KindInvalid, Invalidf("bad %d", 1).Kind)
	assert.Equal(t, "bad 1", Invalidf("bad %d", 1).Message)
}

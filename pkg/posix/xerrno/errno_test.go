package xerrno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsIdentity(t *testing.T) {
	err := Wrap("rwlock_rdlock", ErrBusy)

	assert.ErrorIs(t, err, ErrBusy)
	assert.NotErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "xerrno: rwlock_rdlock: resource busy", err.Error())
	assert.Nil(t, Wrap("x", nil))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "OK"},
		{"invalid", ErrInvalid, "EINVAL"},
		{"nomem", Wrap("key_create", ErrNoMem), "ENOMEM"},
		{"busy wrapped by fmt", fmt.Errorf("outer: %w", ErrBusy), "EBUSY"},
		{"deadlock", ErrDeadlock, "EDEADLK"},
		{"foreign", errors.New("boom"), "OK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(Code(tt.err)))
		})
	}
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(Wrap("trywrlock", ErrBusy)))
	assert.False(t, IsBusy(ErrDeadlock))
	assert.False(t, IsBusy(nil))
}

func TestErrorMessageWithoutOp(t *testing.T) {
	assert.Equal(t, "xerrno: invalid argument", ErrInvalid.Error())
	assert.Equal(t, "xerrno: resource deadlock would occur", ErrDeadlock.Error())
}

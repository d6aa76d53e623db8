package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassNone},
		{"not found", NewError(ErrNotFound, "west brick not found"), ClassNotFound},
		{"already exists", NewError(ErrAlreadyExists, "brick already exists"), ClassAlreadyExists},
		{"invalid", NewError(ErrInvalidArgument, "bad"), ClassInvalidArgument},
		{"wrong kind", NewError(ErrWrongBrickKind, "not a firewall"), ClassWrongBrickKind},
		{"capability", NewError(ErrCapability, "no free port"), ClassCapability},
		{"wrapped twice", fmt.Errorf("link: %w", NewError(ErrNotFound, "x")), ClassNotFound},
		{"unknown", errors.New("boom"), ClassInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Run("described error keeps exact text", func(t *testing.T) {
		err := NewError(ErrNotFound, "west and east bricks not found")
		assert.Equal(t, "west and east bricks not found", Describe(err))
		assert.Equal(t, "west and east bricks not found", err.Error())
	})

	t.Run("plain error uses its message", func(t *testing.T) {
		assert.Equal(t, "boom", Describe(errors.New("boom")))
	})

	t.Run("nil is empty", func(t *testing.T) {
		assert.Empty(t, Describe(nil))
	})
}

func TestResultFromError(t *testing.T) {
	assert.Equal(t, Result{Status: "ok"}, ResultFromError(nil))
	assert.Equal(t,
		Result{Status: "error", Description: "graph already exists"},
		ResultFromError(NewError(ErrAlreadyExists, "graph already exists")))
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		input   string
		want    Side
		wantErr bool
	}{
		{"west", SideWest, false},
		{"east", SideEast, false},
		{"EAST", SideEast, false},
		{" west ", SideWest, false},
		{"north", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSide(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidArgument, "ParseSide(%q)", tt.input)
			assert.Equal(t, "choose west or east for side parameter", Describe(err))
			continue
		}
		assert.NoError(t, err, "ParseSide(%q)", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideEast, SideWest.Opposite())
	assert.Equal(t, SideWest, SideEast.Opposite())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("router")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPrefix(t *testing.T) {
	assert.Nil(t, Prefix("x", nil))

	err := Prefix("brick t1", NewError(ErrAlreadyExists, "brick already exists"))
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, "brick t1: brick already exists", Describe(err))

	plain := Prefix("seed", errors.New("disk on fire"))
	assert.Equal(t, ClassInternal, Classify(plain))
	assert.Equal(t, "seed: disk on fire", Describe(plain))
}

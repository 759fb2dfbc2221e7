// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{
			name: "without cause",
			err:  New(NotConnected, "not connected to database"),
			want: "not_connected: not connected to database",
		},
		{
			name: "with cause",
			err:  Wrap(ConnectionFailed, "cannot reach cluster", stderrors.New("dial tcp: refused")),
			want: "connection_failed: cannot reach cluster: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIs(t *testing.T) {
	cause := stderrors.New("boom")
	inner := Wrap(AuthenticationFailed, "cluster credentials", cause)
	outer := Wrap(ConnectionFailed, "connect", inner)
	wrapped := fmt.Errorf("shell: %w", outer)

	assert.True(t, Is(wrapped, ConnectionFailed))
	assert.True(t, Is(wrapped, AuthenticationFailed))
	assert.False(t, Is(wrapped, StatementFailed))
	assert.False(t, Is(cause, ConnectionFailed))
	assert.False(t, Is(nil, ConnectionFailed))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ConnectionFailed, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(cause))
}

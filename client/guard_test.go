package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuard_WaitWhileLoading(t *testing.T) {
	g := Guard{LoginPath: "/login"}

	s := newSession()
	require.Equal(t, GuardWait, g.Resolve(s, "/orders").Decision)

	s.setLoading()
	require.Equal(t, GuardWait, g.Resolve(s, "/orders").Decision)
}

func TestGuard_AllowAuthenticated(t *testing.T) {
	g := Guard{LoginPath: "/login"}

	s := newSession()
	s.setAuthenticated(&User{ID: "u-1"})

	res := g.Resolve(s, "/orders")
	require.Equal(t, GuardAllow, res.Decision)
	require.Empty(t, res.To)
}

func TestGuard_RedirectAnonymous_RemembersReturnTo(t *testing.T) {
	g := Guard{LoginPath: "/login"}

	s := newSession()
	s.setAnonymous()

	res := g.Resolve(s, "/orders/42")
	require.Equal(t, GuardRedirect, res.Decision)
	require.Equal(t, "/login", res.To)
	require.Equal(t, "/orders/42", res.ReturnTo)
}

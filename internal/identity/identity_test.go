package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNickname_FallbackIsNeverEmpty(t *testing.T) {
	m := NewMap()

	assert.Equal(t, "Player-abcd", m.Nickname("abcdef-123"))
	assert.Equal(t, "Player-ab", m.Nickname("ab"))

	got := m.SetNickname("abcdef-123", "   ")
	assert.Equal(t, "Player-abcd", got)
	assert.Equal(t, "Player-abcd", m.Nickname("abcdef-123"))
}

func TestSetNickname_Normalizes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims and collapses spaces", in: "  Van   Gogh ", want: "Van Gogh"},
		{name: "folds fullwidth letters", in: "Ｐｉｃａｓｓｏ", want: "Picasso"},
		{name: "drops control characters", in: "Mo\x00net\n", want: "Monet"},
		{name: "caps length", in: "abcdefghijklmnopqrstuvwxyz0123", want: "abcdefghijklmnopqrstuvwx"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMap()
			assert.Equal(t, tc.want, m.SetNickname("conn", tc.in))
			assert.Equal(t, tc.want, m.Nickname("conn"))
		})
	}
}

func TestBind_IdempotentOverwrite(t *testing.T) {
	m := NewMap()

	_, ok := m.Account("c1")
	assert.False(t, ok)

	m.Bind("c1", "42")
	m.Bind("c1", "42")
	acc, ok := m.Account("c1")
	assert.True(t, ok)
	assert.Equal(t, "42", acc)

	m.Bind("c1", "43")
	acc, _ = m.Account("c1")
	assert.Equal(t, "43", acc)

	m.SetNickname("c1", "frida")
	acc, _ = m.Account("c1")
	assert.Equal(t, "43", acc, "setting a nickname keeps the account")

	m.Forget("c1")
	_, ok = m.Account("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

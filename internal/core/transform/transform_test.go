package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	cases := []struct {
		op, in, want string
	}{
		{"", "Alice@Example.com", "Alice@Example.com"},
		{"lowercase", "Alice@Example.com", "alice@example.com"},
		{"strip-domain", "alice@example.com", "alice"},
		{"strip-domain", "alice", "alice"},
		{"email-domain", "alice@example.com", "example.com"},
		{"url-encode", "a b+c@d", "a+b%2Bc%40d"},
		{"md5", "alice", "6384e2b2184bcbf58eccf10ca7a6563c"},
		{"SHA256", "alice", "2bd806c97f0e00af1a1fc3328fa763a9269723c8db8fac4f93af71db186d6e90"},
	}
	for _, tc := range cases {
		t.Run(tc.op+"/"+tc.in, func(t *testing.T) {
			got, err := Apply(tc.op, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyUnknown(t *testing.T) {
	_, err := Apply("rot13", "alice")
	assert.Error(t, err)
	assert.False(t, Supported("rot13"))
	assert.True(t, Supported(""))
	assert.True(t, Supported(" Lowercase "))
}

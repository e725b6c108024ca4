package cryptox

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap params keep the suite fast.
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher(testParams)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, digest, "correct horse")

	ok, err := h.Verify("correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong horse", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltedDigestsDiffer(t *testing.T) {
	h := NewArgon2Hasher(testParams)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_VerifyUsesEncodedParams(t *testing.T) {
	digest, err := NewArgon2Hasher(testParams).Hash("pw")
	require.NoError(t, err)

	// a hasher configured differently still verifies older digests
	ok, err := NewArgon2Hasher(DefaultParams).Verify("pw", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_VerifyMalformed(t *testing.T) {
	h := NewArgon2Hasher(testParams)

	cases := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=x$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$",
		"$argon2id$v=19$m=1,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=0$c2FsdA$a2V5",
	}
	for _, c := range cases {
		require.NotPanics(t, func() {
			_, err := h.Verify("pw", c)
			assert.ErrorIs(t, err, ErrInvalidHash, c)
		}, c)
	}

	_, err := h.Verify("pw", "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestArgon2Hasher_SaltError(t *testing.T) {
	orig := readSalt
	t.Cleanup(func() { readSalt = orig })
	readSalt = func(b []byte) (int, error) { return 0, errors.New("no entropy") }

	_, err := NewArgon2Hasher(testParams).Hash("pw")
	require.Error(t, err)
}

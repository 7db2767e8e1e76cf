package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkSigner(t *testing.T) {
	signer := NewLinkSigner("link-secret")
	sig := signer.Sign("65f1e2ab12cd34", "accept")

	assert.NotContains(t, sig, "=")
	assert.True(t, signer.Verify(sig, "65f1e2ab12cd34", "accept"))
	assert.False(t, signer.Verify(sig, "65f1e2ab12cd34", "decline"))
	assert.False(t, signer.Verify(sig, "65f1e2ab12cd35", "accept"))
	assert.False(t, signer.Verify("", "65f1e2ab12cd34", "accept"))
	assert.False(t, signer.Verify("%%%", "65f1e2ab12cd34", "accept"))
	assert.False(t, NewLinkSigner("other").Verify(sig, "65f1e2ab12cd34", "accept"))
}

func TestNewLinkSigner_Empty(t *testing.T) {
	assert.Nil(t, NewLinkSigner(""))
}

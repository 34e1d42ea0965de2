package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBusinessEmail(t *testing.T) {
	assert.True(t, IsBusinessEmail("jane@acmerealty.com"))
	assert.True(t, IsBusinessEmail("j.smith@sub.acme.co.uk"))

	assert.False(t, IsBusinessEmail("jane@gmail.com"))
	assert.False(t, IsBusinessEmail("jane@YAHOO.com"))
	assert.False(t, IsBusinessEmail("not-an-email"))
	assert.False(t, IsBusinessEmail("jane@localhost"))
	assert.False(t, IsBusinessEmail(""))
}

func TestIsGenericMailbox(t *testing.T) {
	assert.True(t, IsGenericMailbox("info@acme.com"))
	assert.True(t, IsGenericMailbox("NoReply@acme.com"))
	assert.True(t, IsGenericMailbox("sales@acme.com"))

	assert.False(t, IsGenericMailbox("jane.smith@acme.com"))
}

package identity

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLoginIds(t *testing.T) {
	d := New(Disabled, "a@x", "b@x")
	disabledId, partnerId := d.LoginIds()
	assert.Equal(t, disabledId, "a@x")
	assert.Equal(t, partnerId, "b@x")

	p := New(Partner, "b@x", "a@x")
	disabledId, partnerId = p.LoginIds()
	assert.Equal(t, disabledId, "a@x")
	assert.Equal(t, partnerId, "b@x")
}

func TestEstablishOnce(t *testing.T) {
	i := New(Disabled, "a@x", "b@x")
	assert.Equal(t, i.Known(), false)
	assert.Equal(t, i.SelfId(), "")
	assert.Equal(t, i.Establish(), true)
	i.ConfiguredSelfId = "c@x"
	assert.Equal(t, i.Establish(), false)
	assert.Equal(t, i.SelfId(), "a@x")
	assert.Equal(t, i.PeerId(), "b@x")
}

func TestReassign(t *testing.T) {
	i := New(Disabled, "a@x", "b@x")
	i.Establish()
	i.SetParagraph("3")
	i.Reassign("a@x", "c@x")

	assert.Equal(t, i.Role, Partner)
	assert.Equal(t, i.Known(), false)
	_, ok := i.Paragraph()
	assert.Equal(t, ok, false)
	disabledId, partnerId := i.LoginIds()
	assert.Equal(t, disabledId, "c@x")
	assert.Equal(t, partnerId, "a@x")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("partnerRole")
	assert.Equal(t, err, nil)
	assert.Equal(t, r, Partner)
	r, err = ParseRole("disabled")
	assert.Equal(t, err, nil)
	assert.Equal(t, r, Disabled)
	_, err = ParseRole("observer")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, Disabled.String(), "disabledRole")
}

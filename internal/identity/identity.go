package identity

import (
	"fmt"
)

type Role int

const (
	Disabled Role = iota
	Partner
)

func (r Role) String() string {
	switch r {
	case Disabled:
		return "disabledRole"
	case Partner:
		return "partnerRole"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Flip returns the other role of the dyad.
func (r Role) Flip() Role {
	if r == Disabled {
		return Partner
	}
	return Disabled
}

// ParseRole accepts the wire tags and the short names used on the command line.
func ParseRole(s string) (Role, error) {
	switch s {
	case "disabledRole", "disabled", "typist":
		return Disabled, nil
	case "partnerRole", "partner":
		return Partner, nil
	default:
		return Disabled, fmt.Errorf("unknown role %q", s)
	}
}

// Identity is the session context shared by the channel clients and the coordinator.
// The participant ids are fixed once the login is sent and stay fixed until a new assignment.
type Identity struct {
	Role Role

	// configured ids, used to answer the login prompt
	ConfiguredSelfId string
	ConfiguredPeerId string

	selfId      string
	peerId      string
	established bool

	paragraphId    string
	hasParagraphId bool
}

func New(role Role, selfId string, peerId string) *Identity {
	return &Identity{
		Role:             role,
		ConfiguredSelfId: selfId,
		ConfiguredPeerId: peerId,
	}
}

// LoginIds orders the configured ids as (disabled, partner).
func (i *Identity) LoginIds() (disabledId string, partnerId string) {
	if i.Role == Disabled {
		return i.ConfiguredSelfId, i.ConfiguredPeerId
	}
	return i.ConfiguredPeerId, i.ConfiguredSelfId
}

// Establish fixes the session ids. Later calls are ignored.
func (i *Identity) Establish() bool {
	if i.established {
		return false
	}
	i.selfId = i.ConfiguredSelfId
	i.peerId = i.ConfiguredPeerId
	i.established = true
	return true
}

func (i *Identity) Known() bool {
	return i.established
}

func (i *Identity) SelfId() string {
	return i.selfId
}

func (i *Identity) PeerId() string {
	return i.peerId
}

func (i *Identity) SetParagraph(id string) {
	i.paragraphId = id
	i.hasParagraphId = true
}

func (i *Identity) ClearParagraph() {
	i.paragraphId = ""
	i.hasParagraphId = false
}

func (i *Identity) Paragraph() (string, bool) {
	return i.paragraphId, i.hasParagraphId
}

// Reassign resets the identity for the next assignment: the role flips, the
// established ids are dropped and the new ids become the configured ones.
func (i *Identity) Reassign(selfId string, peerId string) {
	i.Role = i.Role.Flip()
	i.ConfiguredSelfId = selfId
	i.ConfiguredPeerId = peerId
	i.selfId = ""
	i.peerId = ""
	i.established = false
	i.ClearParagraph()
}

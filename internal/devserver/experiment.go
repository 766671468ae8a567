package devserver

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"echotree/internal/identity"
	"echotree/internal/protocol"
)

// Paragraph is one task: the partner is told the topic, the typist gets the text.
type Paragraph struct {
	Topic string
	Text  string
}

// ParseParagraphs reads blank-line separated `topic|text` blocks.
func ParseParagraphs(s string) []Paragraph {
	paragraphs := []Paragraph{}
	for _, block := range strings.Split(s, "\n\n") {
		block = strings.TrimSpace(block)
		topic, text, found := strings.Cut(block, protocol.FieldSeparator)
		if !found || topic == "" || text == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Topic: strings.TrimSpace(topic),
			Text:  strings.Join(strings.Fields(text), " "),
		})
	}
	return paragraphs
}

type player struct {
	peer *peer
	id   string
	role identity.Role
	dyad *dyad
}

type dyad struct {
	id         string
	disabledId string
	partnerId  string
	players    map[identity.Role]*player

	paragraph     int
	insertedWords int
	goodGuesses   int
}

func (d *dyad) other(p *player) *player {
	return d.players[p.role.Flip()]
}

// experiment matches participants into dyads and relays between them.
type experiment struct {
	settings *Settings
	codec    protocol.Codec

	stateLock   sync.Mutex
	dyads       map[string]*dyad
	assignments map[string]identity.Role
}

func newExperiment(settings *Settings) *experiment {
	return &experiment{
		settings:    settings,
		codec:       protocol.NewCodec(settings.Separator),
		dyads:       map[string]*dyad{},
		assignments: map[string]identity.Role{},
	}
}

func (e *experiment) frame(command protocol.Command, payload string) string {
	return e.codec.Encode(protocol.NewFrame(command, payload))
}

func (e *experiment) join(p *peer) *player {
	pl := &player{peer: p}
	p.write(e.frame(protocol.CommandSendLogin, ""))
	return pl
}

func (e *experiment) handleFrame(pl *player, raw string) {
	frame, err := e.codec.Decode(raw)
	if err != nil {
		return
	}

	e.stateLock.Lock()
	defer e.stateLock.Unlock()

	switch frame.Command {
	case protocol.CommandLogin:
		e.login(pl, frame.Payload)
	case protocol.CommandAddWord:
		if pl.dyad == nil || frame.Payload == "" {
			return
		}
		if 1 < len(frame.Payload) && frame.Payload != "0x08" {
			pl.dyad.insertedWords++
		}
		if other := pl.dyad.other(pl); other != nil {
			other.peer.write(e.frame(protocol.CommandAddWord, frame.Payload))
		}
	case protocol.CommandGoodGuessClicked:
		if pl.dyad == nil {
			return
		}
		pl.dyad.goodGuesses++
		if other := pl.dyad.other(pl); other != nil {
			other.peer.write(e.frame(protocol.CommandGoodGuessClicked, ""))
		}
	case protocol.CommandParDone:
		if pl.dyad == nil || pl.role != identity.Disabled {
			return
		}
		e.nextParagraph(pl.dyad)
	case protocol.CommandTest:
	default:
		glog.Infof("[devserver]unknown command %s\n", frame.Command)
	}
}

func (e *experiment) login(pl *player, payload string) {
	login, err := protocol.ParseLoginPayload(payload)
	if err != nil {
		glog.Infof("[devserver]bad login %q: %s\n", payload, err)
		return
	}
	role, err := identity.ParseRole(login.Role)
	if err != nil {
		return
	}
	thisId, thatId := login.DisabledId, login.PartnerId
	if role == identity.Partner {
		thisId, thatId = thatId, thisId
	}
	if thisId == thatId {
		pl.peer.write(e.frame(
			protocol.CommandShowMsg,
			fmt.Sprintf("It looks as if player '%s' is trying to play with itself. Please go to the starting page.", thisId),
		))
		return
	}

	key := login.DisabledId + protocol.FieldSeparator + login.PartnerId
	d, ok := e.dyads[key]
	if !ok {
		d = &dyad{
			id:         uuid.NewString(),
			disabledId: login.DisabledId,
			partnerId:  login.PartnerId,
			players:    map[identity.Role]*player{},
			paragraph:  -1,
		}
		e.dyads[key] = d
	}
	pl.id = thisId
	pl.role = role
	pl.dyad = d
	d.players[role] = pl

	other := d.other(pl)
	if other == nil {
		glog.Infof("[devserver]dyad %s waiting for %s\n", d.id, thatId)
		pl.peer.write(e.frame(protocol.CommandWaitForPlayer, thatId))
		return
	}
	glog.Infof("[devserver]dyad %s complete: %s/%s\n", d.id, d.disabledId, d.partnerId)
	pl.peer.write(e.frame(protocol.CommandDyadComplete, ""))
	other.peer.write(e.frame(protocol.CommandDyadComplete, ""))
	if partner := d.players[identity.Partner]; partner != nil {
		partner.peer.write(e.frame(
			protocol.CommandSubscribeToTree,
			d.disabledId+e.codec.Separator+e.settings.TreeType,
		))
	}
}

func (e *experiment) nextParagraph(d *dyad) {
	d.paragraph++
	if len(e.settings.Paragraphs) <= d.paragraph {
		glog.Infof("[devserver]dyad %s done: %d words inserted, %d good guesses\n", d.id, d.insertedWords, d.goodGuesses)
		for _, pl := range d.players {
			pl.peer.write(e.frame(protocol.CommandDone, ""))
		}
		if e.settings.SwapRoles {
			e.swapRoles(d)
		}
		return
	}
	paragraph := e.settings.Paragraphs[d.paragraph]
	if disabled := d.players[identity.Disabled]; disabled != nil {
		disabled.peer.write(e.frame(protocol.CommandNewPar, protocol.Paragraph{
			Id:   strconv.Itoa(d.paragraph),
			Text: paragraph.Text,
		}.Encode()))
	}
	if partner := d.players[identity.Partner]; partner != nil {
		partner.peer.write(e.frame(protocol.CommandNewPar, paragraph.Topic))
	}
}

// swapRoles hands both players the opposite role on a new page.
func (e *experiment) swapRoles(d *dyad) {
	for role, pl := range d.players {
		other := d.disabledId
		if role == identity.Disabled {
			other = d.partnerId
		}
		next := role.Flip()
		assignment := protocol.Assignment{
			SelfId:       pl.id,
			PeerId:       other,
			NextUrl:      e.settings.pageUrl(next),
			Instructions: fmt.Sprintf("Thank you! In the next round you play the %s.", roleName(next)),
		}
		pl.peer.write(e.frame(protocol.CommandNewAssignment, assignment.Encode()))
	}
}

func roleName(role identity.Role) string {
	if role == identity.Disabled {
		return "typist"
	}
	return "partner"
}

func (e *experiment) leave(pl *player) {
	e.stateLock.Lock()
	defer e.stateLock.Unlock()

	d := pl.dyad
	if d == nil || d.players[pl.role] != pl {
		return
	}
	delete(d.players, pl.role)
	if other := d.other(pl); other != nil {
		other.peer.write(e.frame(protocol.CommandShowMsg, fmt.Sprintf("Player %s left the session.", pl.id)))
	}
	if len(d.players) == 0 {
		delete(e.dyads, d.disabledId+protocol.FieldSeparator+d.partnerId)
	}
}

// assign decides the role of a participant who asks for an assignment.
// A participant whose friend already took the typist role becomes the partner.
func (e *experiment) assign(ownId string, otherId string) identity.Role {
	e.stateLock.Lock()
	defer e.stateLock.Unlock()

	role := identity.Disabled
	if otherRole, ok := e.assignments[otherId]; ok && otherRole == identity.Disabled {
		role = identity.Partner
	}
	e.assignments[ownId] = role
	return role
}

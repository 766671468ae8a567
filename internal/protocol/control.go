package protocol

import (
	"fmt"
	"strings"
)

// Version tags the wire format. It is sent in the login frame and in every tree request.
const Version = 2

const (
	DefaultSeparator = ">"
	LegacySeparator  = ":"
	FieldSeparator   = "|"
)

type Command string

// server to client
const (
	CommandTest             Command = "test"
	CommandSendLogin        Command = "sendLogin"
	CommandShowMsg          Command = "showMsg"
	CommandWaitForPlayer    Command = "waitForPlayer"
	CommandDyadComplete     Command = "dyadComplete"
	CommandSubscribeToTree  Command = "subscribeToTree"
	CommandAddWord          Command = "addWord"
	CommandNewPar           Command = "newPar"
	CommandGoodGuessClicked Command = "goodGuessClicked"
	CommandDone             Command = "done"
	CommandNewAssignment    Command = "newAssignment"
	CommandPleaseClose      Command = "pleaseClose"
)

// client to server
const (
	CommandLogin   Command = "login"
	CommandParDone Command = "parDone"
)

// Frame is one control message, `tag<sep>payload`.
type Frame struct {
	Command Command
	Payload string
	// false when the frame had no separator at all
	HasPayload bool
}

func NewFrame(command Command, payload string) Frame {
	return Frame{
		Command:    command,
		Payload:    payload,
		HasPayload: true,
	}
}

// Fields splits the payload into at most n fields. An absent payload has no fields.
func (f Frame) Fields(sep string, n int) []string {
	if !f.HasPayload || f.Payload == "" {
		return nil
	}
	return strings.SplitN(f.Payload, sep, n)
}

type Codec struct {
	Separator string
}

func NewCodec(separator string) Codec {
	if separator == "" {
		separator = DefaultSeparator
	}
	return Codec{
		Separator: separator,
	}
}

func (c Codec) Encode(frame Frame) string {
	return string(frame.Command) + c.Separator + frame.Payload
}

// Decode splits the tag from the payload at the first separator only.
func (c Codec) Decode(raw string) (Frame, error) {
	if raw == "" {
		return Frame{}, NewProtocolError("", ErrEmptyFrame)
	}
	tag, payload, found := strings.Cut(raw, c.Separator)
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Frame{}, NewProtocolError("", ErrEmptyFrame)
	}
	return Frame{
		Command:    Command(tag),
		Payload:    payload,
		HasPayload: found,
	}, nil
}

// LoginPayload is the argument of the login command.
type LoginPayload struct {
	Role       string
	DisabledId string
	PartnerId  string
}

func (p LoginPayload) Encode() string {
	return fmt.Sprintf(
		"role=%s disabledID=%s partnerID=%s version=%d",
		p.Role,
		p.DisabledId,
		p.PartnerId,
		Version,
	)
}

// ParseLoginPayload accepts the current form and the versionless legacy form.
func ParseLoginPayload(s string) (LoginPayload, error) {
	var p LoginPayload
	parts := strings.Fields(s)
	if len(parts) < 3 {
		return p, ErrMissingArgument
	}
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return p, fmt.Errorf("bad login field %q", part)
		}
		switch key {
		case "role":
			p.Role = value
		case "disabledID":
			p.DisabledId = value
		case "partnerID":
			p.PartnerId = value
		}
	}
	if p.Role == "" || p.DisabledId == "" || p.PartnerId == "" {
		return p, ErrMissingArgument
	}
	return p, nil
}

// Paragraph is the argument of newPar. The typist gets `id|text`, the partner a bare topic.
type Paragraph struct {
	Id    string
	Text  string
	Topic string
}

func (p Paragraph) IsTopic() bool {
	return p.Id == ""
}

func ParseParagraph(payload string) (Paragraph, error) {
	if payload == "" {
		return Paragraph{}, ErrMissingArgument
	}
	id, text, found := strings.Cut(payload, FieldSeparator)
	if !found {
		return Paragraph{Topic: payload}, nil
	}
	if id == "" {
		return Paragraph{}, ErrMissingArgument
	}
	return Paragraph{Id: id, Text: text}, nil
}

func (p Paragraph) Encode() string {
	if p.IsTopic() {
		return p.Topic
	}
	return p.Id + FieldSeparator + p.Text
}

// Assignment is the argument of newAssignment: `self|peer|nextUrl|instructions`.
type Assignment struct {
	SelfId       string
	PeerId       string
	NextUrl      string
	Instructions string
}

func ParseAssignment(payload string) (Assignment, error) {
	fields := strings.SplitN(payload, FieldSeparator, 4)
	if len(fields) < 3 {
		return Assignment{}, ErrMissingArgument
	}
	a := Assignment{
		SelfId:  fields[0],
		PeerId:  fields[1],
		NextUrl: fields[2],
	}
	if len(fields) == 4 {
		a.Instructions = fields[3]
	}
	if a.SelfId == "" || a.PeerId == "" || a.NextUrl == "" {
		return Assignment{}, ErrMissingArgument
	}
	return a, nil
}

func (a Assignment) Encode() string {
	return strings.Join([]string{a.SelfId, a.PeerId, a.NextUrl, a.Instructions}, FieldSeparator)
}

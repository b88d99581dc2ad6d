package server

import (
	"strings"
)

// Feishu text command flags
const (
	flagHideName = "--hide-name"
	flagSpoiler  = "--spoiler"
	flagCaption  = "--caption"
)

// FeishuCommand is a slash-style command typed into a Feishu message
type FeishuCommand struct {
	Name     string // expire, testdelete, peekabot
	Delay    string
	HideName bool
	Spoiler  bool
	Caption  string
}

// ParseFeishuCommand parses "/expire <delay> [--hide-name] [--spoiler] [--caption <text>]",
// "/testdelete" and "/peekabot". Leading @mentions are skipped. Everything after
// --caption is the caption. Returns false if the text is not a known command.
func ParseFeishuCommand(text string) (*FeishuCommand, bool) {
	rest := strings.TrimSpace(text)
	for strings.HasPrefix(rest, "@") {
		end := strings.IndexAny(rest, " \t\n")
		if end < 0 {
			return nil, false
		}
		rest = strings.TrimSpace(rest[end:])
	}

	if !strings.HasPrefix(rest, "/") {
		return nil, false
	}

	name := rest[1:]
	args := ""
	if end := strings.IndexAny(rest, " \t\n"); end >= 0 {
		name = rest[1:end]
		args = rest[end:]
	}
	name = strings.ToLower(name)

	switch name {
	case CommandTestDelete, CommandHelp:
		return &FeishuCommand{Name: name}, true
	case CommandExpire:
	default:
		return nil, false
	}

	cmd := &FeishuCommand{Name: name}
	if idx := strings.Index(args, flagCaption); idx >= 0 {
		cmd.Caption = strings.TrimSpace(args[idx+len(flagCaption):])
		args = args[:idx]
	}

	var delay []string
	for _, tok := range strings.Fields(args) {
		switch tok {
		case flagHideName:
			cmd.HideName = true
		case flagSpoiler:
			cmd.Spoiler = true
		default:
			delay = append(delay, tok)
		}
	}
	cmd.Delay = strings.Join(delay, " ")
	return cmd, true
}

package domain

import (
	"fmt"
	"strings"
)

// SpoilerPrefix is the file name marker that makes Discord blur an attachment
const SpoilerPrefix = "SPOILER_"

// Invocation identifies where and by whom a command was issued
type Invocation struct {
	ChannelID string
	MessageID string // Command message, empty for slash commands
	Member    Member
}

// Attachment references the file supplied with a command
type Attachment struct {
	// URL is set for platforms that serve attachments over HTTP (Discord)
	URL string
	// ResourceKey identifies a platform-hosted resource (Feishu image_key)
	ResourceKey string
	// MessageID is the message the resource belongs to, if the platform needs it
	MessageID   string
	Filename    string
	ContentType string
}

// Empty reports whether the attachment references nothing
func (a *Attachment) Empty() bool {
	return a.URL == "" && a.ResourceKey == ""
}

// Source returns a printable reference for logs
func (a *Attachment) Source() string {
	if a.URL != "" {
		return a.URL
	}
	return a.ResourceKey
}

// File is a fetched attachment ready to be re-uploaded
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExpireRequest is one upload-and-expire invocation
type ExpireRequest struct {
	Invocation Invocation
	Attachment Attachment
	DelayText  string
	ShowName   bool
	Caption    string
	Spoiler    bool
}

// NewExpireRequest returns a request with the command defaults applied
func NewExpireRequest(inv Invocation, att Attachment, delay string) *ExpireRequest {
	return &ExpireRequest{
		Invocation: inv,
		Attachment: att,
		DelayText:  delay,
		ShowName:   true,
	}
}

// DisplayText is the text posted alongside the image. A non-blank caption
// is quoted in its own block below the image.
func (r *ExpireRequest) DisplayText() string {
	caption := strings.TrimSpace(r.Caption)
	if caption == "" {
		return ""
	}
	return fmt.Sprintf("\n\n\"%s\"", caption)
}

// UploadFileName is the name used when re-uploading the attachment
func (r *ExpireRequest) UploadFileName() string {
	if r.Spoiler {
		return SpoilerPrefix + r.Attachment.Filename
	}
	return r.Attachment.Filename
}

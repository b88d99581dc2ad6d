package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/peekabot/peekabot/internal/biz/usecase"
)

// MessagesConfig contains user-facing strings loaded from YAML
type MessagesConfig struct {
	Errors       ErrorMessages        `yaml:"errors"`
	Expire       ExpireMessages       `yaml:"expire"`
	Announcement AnnouncementMessages `yaml:"announcement"`
	TestDelete   TestDeleteMessages   `yaml:"testdelete"`
	Help         HelpMessages         `yaml:"help"`
}

// ErrorMessages are replies for failed commands
type ErrorMessages struct {
	InvalidFormat  string `yaml:"invalid_format"`
	DelayTooLong   string `yaml:"delay_too_long"`
	DownloadFailed string `yaml:"download_failed"`
	MissingImage   string `yaml:"missing_image"`
	Unexpected     string `yaml:"unexpected"`
}

// ExpireMessages are replies for a successful upload
type ExpireMessages struct {
	Scheduled string `yaml:"scheduled"`
}

// AnnouncementMessages are posted when an image is deleted
type AnnouncementMessages struct {
	WithName        string `yaml:"with_name"`
	NoName          string `yaml:"no_name"`
	ReactionSummary string `yaml:"reaction_summary"`
}

// TestDeleteMessages are used by the liveness command
type TestDeleteMessages struct {
	Message string `yaml:"message"`
	Sent    string `yaml:"sent"`
	Failed  string `yaml:"failed"`
}

// HelpMessages make up the help command output
type HelpMessages struct {
	Usage        string `yaml:"usage"`
	ReactionsOn  string `yaml:"reactions_on"`
	ReactionsOff string `yaml:"reactions_off"`
}

// LoadMessagesConfig loads messages configuration from a YAML file
func LoadMessagesConfig(configPath string) (*MessagesConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/peekabot/messages.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No messages.yaml found, using defaults")
		return DefaultMessagesConfig(), nil
	}

	fmt.Printf("[Config] Loading messages from: %s\n", loadedPath)

	var config MessagesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return DefaultMessagesConfig(), fmt.Errorf("failed to parse messages.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *MessagesConfig) fillDefaults() {
	defaults := DefaultMessagesConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}

	fill(&c.Errors.InvalidFormat, defaults.Errors.InvalidFormat)
	fill(&c.Errors.DelayTooLong, defaults.Errors.DelayTooLong)
	fill(&c.Errors.DownloadFailed, defaults.Errors.DownloadFailed)
	fill(&c.Errors.MissingImage, defaults.Errors.MissingImage)
	fill(&c.Errors.Unexpected, defaults.Errors.Unexpected)
	fill(&c.Expire.Scheduled, defaults.Expire.Scheduled)
	fill(&c.Announcement.WithName, defaults.Announcement.WithName)
	fill(&c.Announcement.NoName, defaults.Announcement.NoName)
	fill(&c.Announcement.ReactionSummary, defaults.Announcement.ReactionSummary)
	fill(&c.TestDelete.Message, defaults.TestDelete.Message)
	fill(&c.TestDelete.Sent, defaults.TestDelete.Sent)
	fill(&c.TestDelete.Failed, defaults.TestDelete.Failed)
	fill(&c.Help.Usage, defaults.Help.Usage)
	fill(&c.Help.ReactionsOn, defaults.Help.ReactionsOn)
	fill(&c.Help.ReactionsOff, defaults.Help.ReactionsOff)
}

// ToMessageConfig converts to usecase message configuration
func (c *MessagesConfig) ToMessageConfig() usecase.MessageConfig {
	return usecase.MessageConfig{
		InvalidFormat:    c.Errors.InvalidFormat,
		DelayTooLong:     c.Errors.DelayTooLong,
		DownloadFailed:   c.Errors.DownloadFailed,
		MissingImage:     c.Errors.MissingImage,
		Unexpected:       c.Errors.Unexpected,
		Scheduled:        c.Expire.Scheduled,
		AnnounceWithName: c.Announcement.WithName,
		AnnounceNoName:   c.Announcement.NoName,
		ReactionSummary:  c.Announcement.ReactionSummary,
		TestMessage:      c.TestDelete.Message,
		TestSent:         c.TestDelete.Sent,
		TestFailed:       c.TestDelete.Failed,
		Help:             c.Help.Usage,
		HelpReactionsOn:  c.Help.ReactionsOn,
		HelpReactionsOff: c.Help.ReactionsOff,
	}
}

// DefaultMessagesConfig returns the built-in messages
func DefaultMessagesConfig() *MessagesConfig {
	d := usecase.DefaultMessageConfig
	return &MessagesConfig{
		Errors: ErrorMessages{
			InvalidFormat:  d.InvalidFormat,
			DelayTooLong:   d.DelayTooLong,
			DownloadFailed: d.DownloadFailed,
			MissingImage:   d.MissingImage,
			Unexpected:     d.Unexpected,
		},
		Expire: ExpireMessages{
			Scheduled: d.Scheduled,
		},
		Announcement: AnnouncementMessages{
			WithName:        d.AnnounceWithName,
			NoName:          d.AnnounceNoName,
			ReactionSummary: d.ReactionSummary,
		},
		TestDelete: TestDeleteMessages{
			Message: d.TestMessage,
			Sent:    d.TestSent,
			Failed:  d.TestFailed,
		},
		Help: HelpMessages{
			Usage:        d.Help,
			ReactionsOn:  d.HelpReactionsOn,
			ReactionsOff: d.HelpReactionsOff,
		},
	}
}

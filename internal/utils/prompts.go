package utils

import (
	"context"
	"embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt loads a prompt from the embedded markdown files
func LoadPrompt(path string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", path))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", path, err)
	}
	return string(content), nil
}

// RenderPrompt formats the embedded system and user templates with vars.
// An empty userPath renders the system template alone as a user turn.
func RenderPrompt(ctx context.Context, systemPath, userPath string, vars map[string]any) ([]*schema.Message, error) {
	sys, err := LoadPrompt(systemPath)
	if err != nil {
		return nil, err
	}

	var tpl prompt.ChatTemplate
	if userPath == "" {
		tpl = prompt.FromMessages(schema.FString, schema.UserMessage(sys))
	} else {
		user, err := LoadPrompt(userPath)
		if err != nil {
			return nil, err
		}
		tpl = prompt.FromMessages(schema.FString,
			schema.SystemMessage(sys),
			schema.UserMessage(user),
		)
	}

	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt %s: %w", systemPath, err)
	}
	return msgs, nil
}

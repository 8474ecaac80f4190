package services

import (
	"errors"
	"strings"

	"github.com/Dosada05/prompt-battle/judge"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/storage"
)

const (
	maxPromptLength = 4000
	maxTitleLength  = 200
	maxDescLength   = 2000
)

// modelError separates unusable model replies from transport failures.
func modelError(op string, err error) error {
	if errors.Is(err, judge.ErrMalformedReply) {
		return parseError(op, err)
	}
	return upstreamError(op, err)
}

func validatePrompt(op, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", validationError(op, "prompt is required")
	}
	if len([]rune(prompt)) > maxPromptLength {
		return "", validationError(op, "prompt is too long")
	}
	return prompt, nil
}

func populateUserAvatar(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*user.AvatarKey); url != "" {
			user.AvatarURL = &url
		}
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

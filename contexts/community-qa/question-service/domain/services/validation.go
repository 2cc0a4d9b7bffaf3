package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
)

const (
	MinTitleLength       = 10
	MaxTitleLength       = 200
	MinDescriptionLength = 20
	MaxTagsPerQuestion   = 5
	MinTagLength         = 2
	MaxTagLength         = 20
	MinAnswerLength      = 10
	MaxCommentLength     = 500
	MaxTagNameLength     = 50
	MaxTagDescription    = 200
	DefaultTagColor      = "#3B82F6"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domainerrors.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func length(value string) int {
	return utf8.RuneCountInString(value)
}

func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if n := length(title); n < MinTitleLength || n > MaxTitleLength {
		return "", invalid("title must be between %d and %d characters", MinTitleLength, MaxTitleLength)
	}
	return title, nil
}

func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if length(description) < MinDescriptionLength {
		return "", invalid("description must be at least %d characters", MinDescriptionLength)
	}
	return description, nil
}

// NormalizeQuestionTags lowercases, trims and de-duplicates tags in first-seen
// order, then enforces the per-question count and length bounds.
func NormalizeQuestionTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		if n := length(tag); n < MinTagLength || n > MaxTagLength {
			return nil, invalid("tag %q must be between %d and %d characters", tag, MinTagLength, MaxTagLength)
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 || len(out) > MaxTagsPerQuestion {
		return nil, invalid("a question needs between 1 and %d tags", MaxTagsPerQuestion)
	}
	return out, nil
}

func ValidateAnswerContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if length(content) < MinAnswerLength {
		return "", invalid("answer must be at least %d characters", MinAnswerLength)
	}
	return content, nil
}

func ValidateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if n := length(content); n < 1 || n > MaxCommentLength {
		return "", invalid("comment must be between 1 and %d characters", MaxCommentLength)
	}
	return content, nil
}

func NormalizeTagName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || length(name) > MaxTagNameLength {
		return "", invalid("tag name must be between 1 and %d characters", MaxTagNameLength)
	}
	return name, nil
}

func ValidateTagDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if length(description) > MaxTagDescription {
		return "", invalid("tag description cannot exceed %d characters", MaxTagDescription)
	}
	return description, nil
}

// NormalizeTagColor returns DefaultTagColor for an empty value.
func NormalizeTagColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return DefaultTagColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", invalid("color must be a hex value like %s", DefaultTagColor)
	}
	return strings.ToUpper(color), nil
}

// TagDelta reports which tags were added and removed between two normalized
// tag lists.
func TagDelta(before []string, after []string) (added []string, removed []string) {
	prev := make(map[string]struct{}, len(before))
	for _, tag := range before {
		prev[tag] = struct{}{}
	}
	next := make(map[string]struct{}, len(after))
	for _, tag := range after {
		next[tag] = struct{}{}
		if _, ok := prev[tag]; !ok {
			added = append(added, tag)
		}
	}
	for _, tag := range before {
		if _, ok := next[tag]; !ok {
			removed = append(removed, tag)
		}
	}
	return added, removed
}

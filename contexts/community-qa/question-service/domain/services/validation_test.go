package services

import (
	"errors"
	"strings"
	"testing"

	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
)

func TestNormalizeQuestionTags(t *testing.T) {
	tags, err := NormalizeQuestionTags([]string{" Go ", "go", "Concurrency", ""})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "concurrency" {
		t.Fatalf("unexpected tags %v", tags)
	}

	cases := [][]string{
		nil,
		{"a"},
		{strings.Repeat("x", MaxTagLength+1)},
		{"one", "two", "three", "four", "five", "six"},
	}
	for _, input := range cases {
		if _, err := NormalizeQuestionTags(input); !errors.Is(err, domainerrors.ErrInvalidRequest) {
			t.Fatalf("expected invalid request for %v, got %v", input, err)
		}
	}
}

func TestValidateQuestionFields(t *testing.T) {
	if _, err := ValidateTitle("too short"); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected short title to fail, got %v", err)
	}
	if _, err := ValidateTitle(strings.Repeat("t", MaxTitleLength+1)); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected long title to fail, got %v", err)
	}
	if title, err := ValidateTitle("  How do channels work?  "); err != nil || title != "How do channels work?" {
		t.Fatalf("expected trimmed title, got %q %v", title, err)
	}
	if _, err := ValidateDescription("short"); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected short description to fail, got %v", err)
	}
	if _, err := ValidateAnswerContent("nope"); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected short answer to fail, got %v", err)
	}
	if _, err := ValidateCommentContent(strings.Repeat("c", MaxCommentLength+1)); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected long comment to fail, got %v", err)
	}
}

func TestNormalizeTagColor(t *testing.T) {
	color, err := NormalizeTagColor("")
	if err != nil || color != DefaultTagColor {
		t.Fatalf("expected default color, got %q %v", color, err)
	}
	color, err = NormalizeTagColor("#a1b2c3")
	if err != nil || color != "#A1B2C3" {
		t.Fatalf("expected uppercased color, got %q %v", color, err)
	}
	if _, err := NormalizeTagColor("blue"); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid color, got %v", err)
	}
}

func TestTagDelta(t *testing.T) {
	added, removed := TagDelta([]string{"go", "http"}, []string{"go", "grpc", "tls"})
	if len(added) != 2 || added[0] != "grpc" || added[1] != "tls" {
		t.Fatalf("unexpected added %v", added)
	}
	if len(removed) != 1 || removed[0] != "http" {
		t.Fatalf("unexpected removed %v", removed)
	}
}

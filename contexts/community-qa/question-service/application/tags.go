package application

import (
	"context"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/domain/services"
	"stackit/contexts/community-qa/question-service/ports"
)

type TagInput struct {
	Name        string
	Description string
	Color       string
}

// UpdateTagInput leaves nil fields unchanged.
type UpdateTagInput struct {
	Description *string
	Color       *string
}

func (s Service) ListTags(ctx context.Context, search string, limit int) ([]entities.Tag, error) {
	return s.Tags.ListTags(ctx, search, 0, ports.ClampLimit(limit, ports.DefaultListLimit))
}

func (s Service) PopularTags(ctx context.Context) ([]entities.Tag, error) {
	return s.Tags.ListTags(ctx, "", 1, ports.PopularTagsLimit)
}

func requireAdmin(actor entities.Actor) error {
	actor, err := requireActor(actor)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) CreateTag(ctx context.Context, actor entities.Actor, input TagInput) (entities.Tag, error) {
	if err := requireAdmin(actor); err != nil {
		return entities.Tag{}, err
	}
	name, err := services.NormalizeTagName(input.Name)
	if err != nil {
		return entities.Tag{}, err
	}
	description, err := services.ValidateTagDescription(input.Description)
	if err != nil {
		return entities.Tag{}, err
	}
	color, err := services.NormalizeTagColor(input.Color)
	if err != nil {
		return entities.Tag{}, err
	}
	tag := entities.Tag{
		Name:        name,
		Description: description,
		Color:       color,
		CreatedAt:   s.now(),
	}
	if err := s.Tags.CreateTag(ctx, tag); err != nil {
		return entities.Tag{}, err
	}
	ResolveLogger(s.Logger).Info("tag created",
		"event", "tag_created",
		"module", "community-qa/question-service",
		"layer", "application",
		"tag", name,
		"actor_id", actor.UserID,
	)
	return tag, nil
}

func (s Service) UpdateTag(ctx context.Context, actor entities.Actor, name string, input UpdateTagInput) (entities.Tag, error) {
	if err := requireAdmin(actor); err != nil {
		return entities.Tag{}, err
	}
	name, err := services.NormalizeTagName(name)
	if err != nil {
		return entities.Tag{}, err
	}
	tag, err := s.Tags.GetTag(ctx, name)
	if err != nil {
		return entities.Tag{}, err
	}
	if input.Description != nil {
		if tag.Description, err = services.ValidateTagDescription(*input.Description); err != nil {
			return entities.Tag{}, err
		}
	}
	if input.Color != nil {
		if tag.Color, err = services.NormalizeTagColor(*input.Color); err != nil {
			return entities.Tag{}, err
		}
	}
	if err := s.Tags.UpdateTag(ctx, tag); err != nil {
		return entities.Tag{}, err
	}
	return tag, nil
}

// DeleteTag refuses tags still referenced by a question.
func (s Service) DeleteTag(ctx context.Context, actor entities.Actor, name string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	name, err := services.NormalizeTagName(name)
	if err != nil {
		return err
	}
	tag, err := s.Tags.GetTag(ctx, name)
	if err != nil {
		return err
	}
	if tag.QuestionsCount > 0 {
		return domainerrors.ErrTagInUse
	}
	return s.Tags.DeleteTag(ctx, name)
}

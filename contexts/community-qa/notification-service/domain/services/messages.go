package services

import (
	"strings"

	"stackit/contexts/community-qa/notification-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/notification-service/domain/errors"
)

const anonymousActor = "Someone"

// TypeForEvent maps a bus event type to the notification it produces.
func TypeForEvent(eventType string) (entities.NotificationType, error) {
	switch strings.TrimSpace(eventType) {
	case "qa.vote.added":
		return entities.NotificationTypeVote, nil
	case "qa.answer.accepted":
		return entities.NotificationTypeAccept, nil
	case "qa.answer.posted":
		return entities.NotificationTypeAnswer, nil
	case "qa.comment.added":
		return entities.NotificationTypeComment, nil
	default:
		return "", domainerrors.ErrUnsupportedEventType
	}
}

// Message renders the recipient-facing text. A vote whose post is the
// question itself reads "question", any other post reads "answer".
func Message(kind entities.NotificationType, actorName string, postID string, questionID string, excerpt string) string {
	actorName = strings.TrimSpace(actorName)
	if actorName == "" {
		actorName = anonymousActor
	}
	excerpt = strings.TrimSpace(excerpt)
	switch kind {
	case entities.NotificationTypeVote:
		target := "answer"
		if postID != "" && postID == questionID {
			target = "question"
		}
		return actorName + " upvoted your " + target
	case entities.NotificationTypeAnswer:
		if excerpt == "" {
			return actorName + " answered your question"
		}
		return actorName + " answered your question: " + excerpt
	case entities.NotificationTypeAccept:
		return actorName + " accepted your answer"
	case entities.NotificationTypeComment:
		if excerpt == "" {
			return actorName + " commented on your answer"
		}
		return actorName + " commented on your answer: " + excerpt
	default:
		return actorName + " interacted with your post"
	}
}

package httpserver

import (
	"errors"
	"net/http"

	questionentities "stackit/contexts/community-qa/question-service/domain/entities"
	questionerrors "stackit/contexts/community-qa/question-service/domain/errors"
	questionports "stackit/contexts/community-qa/question-service/ports"
	questionhttp "stackit/contexts/community-qa/question-service/transport/http"
	authentities "stackit/contexts/identity-access/auth-service/domain/entities"
)

func questionActor(identity authentities.Identity) questionentities.Actor {
	return questionentities.Actor{UserID: identity.UserID, Role: identity.Role}
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.optionalIdentity(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_limit", Message: err.Error()})
		return
	}
	query := r.URL.Query()
	resp, err := s.questions.Handler.ListQuestionsHandler(r.Context(), questionports.QuestionFilter{
		Keyword: query.Get("search"),
		Tag:     query.Get("tag"),
		Sort:    query.Get("sort"),
		Limit:   limit,
	}, identity.UserID)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.CreateQuestionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.CreateQuestionHandler(r.Context(), questionActor(identity), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.optionalIdentity(w, r)
	if !ok {
		return
	}
	resp, err := s.questions.Handler.GetQuestionHandler(r.Context(), r.PathValue("question_id"), questionActor(identity))
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.UpdateQuestionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.UpdateQuestionHandler(r.Context(), questionActor(identity), r.PathValue("question_id"), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := s.questions.Handler.DeleteQuestionHandler(r.Context(), questionActor(identity), r.PathValue("question_id")); err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.AnswerRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.CreateAnswerHandler(r.Context(), questionActor(identity), r.PathValue("question_id"), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.AnswerRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.UpdateAnswerHandler(r.Context(), questionActor(identity), r.PathValue("answer_id"), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := s.questions.Handler.DeleteAnswerHandler(r.Context(), questionActor(identity), r.PathValue("answer_id")); err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.CommentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.AddCommentHandler(r.Context(), questionActor(identity), r.PathValue("answer_id"), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	err := s.questions.Handler.DeleteCommentHandler(
		r.Context(),
		questionActor(identity),
		r.PathValue("answer_id"),
		r.PathValue("comment_id"),
	)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_limit", Message: err.Error()})
		return
	}
	resp, err := s.questions.Handler.ListTagsHandler(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePopularTags(w http.ResponseWriter, r *http.Request) {
	resp, err := s.questions.Handler.PopularTagsHandler(r.Context())
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.TagRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.CreateTagHandler(r.Context(), questionActor(identity), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req questionhttp.UpdateTagRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.questions.Handler.UpdateTagHandler(r.Context(), questionActor(identity), r.PathValue("name"), req)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := s.questions.Handler.DeleteTagHandler(r.Context(), questionActor(identity), r.PathValue("name")); err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func writeQuestionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, questionerrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Code: "forbidden", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrQuestionNotFound),
		errors.Is(err, questionerrors.ErrAnswerNotFound),
		errors.Is(err, questionerrors.ErrCommentNotFound),
		errors.Is(err, questionerrors.ErrTagNotFound),
		errors.Is(err, questionerrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrTagInUse):
		writeJSON(w, http.StatusConflict, errorBody{Code: "tag_in_use", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Code: "conflict", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrContention):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Code: "contention", Message: err.Error()})
	case errors.Is(err, questionerrors.ErrDependencyUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Code: "dependency_unavailable", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal server error"})
	}
}

package httpserver

import (
	"errors"
	"net/http"

	ledgerentities "stackit/contexts/community-qa/vote-ledger/domain/entities"
	ledgererrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	ledgerhttp "stackit/contexts/community-qa/vote-ledger/transport/http"
)

func (s *Server) handleVoteQuestion(w http.ResponseWriter, r *http.Request) {
	s.castVote(w, r, r.PathValue("question_id"), ledgerentities.PostKindQuestion)
}

func (s *Server) handleVoteAnswer(w http.ResponseWriter, r *http.Request) {
	s.castVote(w, r, r.PathValue("answer_id"), ledgerentities.PostKindAnswer)
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request, postID string, kind ledgerentities.PostKind) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.CastVoteRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), identity.UserID, postID, kind, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.AcceptAnswerRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	resp, err := s.ledger.Handler.AcceptAnswerHandler(r.Context(), identity.UserID, r.PathValue("answer_id"), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteState(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.optionalIdentity(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.VoteStateHandler(r.Context(), r.PathValue("post_id"), identity.UserID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrSelfVoteForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Code: "self_vote_forbidden", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Code: "forbidden", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Code: "answer_question_mismatch", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Code: "conflict", Message: err.Error()})
	case errors.Is(err, ledgererrors.ErrContention), errors.Is(err, ledgererrors.ErrVersionConflict):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Code: "contention", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal server error"})
	}
}

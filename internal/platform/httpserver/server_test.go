package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	notificationservice "stackit/contexts/community-qa/notification-service"
	questionservice "stackit/contexts/community-qa/question-service"
	voteledger "stackit/contexts/community-qa/vote-ledger"
	ledgermemory "stackit/contexts/community-qa/vote-ledger/adapters/memory"
	ledgerentities "stackit/contexts/community-qa/vote-ledger/domain/entities"
	ledgererrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	ledgerports "stackit/contexts/community-qa/vote-ledger/ports"
	authservice "stackit/contexts/identity-access/auth-service"
	"stackit/contexts/identity-access/auth-service/adapters/security"
	"stackit/internal/app/bridge"
	"stackit/internal/platform/metrics"
	"stackit/internal/shared/events"

	"golang.org/x/crypto/bcrypt"
)

func newTestServer() *Server {
	return newTestServerWithLedger(voteledger.NewInMemoryModule(nil, nil))
}

func newTestServerWithLedger(ledgerModule voteledger.Module) *Server {
	authModule := authservice.NewInMemoryModule("test-secret", time.Hour, []string{"admin@example.com"}, nil)
	authModule.Service.Hasher = security.BcryptHasher{Cost: bcrypt.MinCost}
	authModule.Handler.Service = authModule.Service

	questionModule := questionservice.NewInMemoryModule(bridge.Ledger{Module: ledgerModule}, nil)
	notificationModule := notificationservice.NewInMemoryModule(bridge.Directory{Auth: authModule.Service}, nil, nil)
	return New(authModule, questionModule, ledgerModule, notificationModule, metrics.NewRegistry(), nil, ":0")
}

func eventFor(eventID string, eventType string, payload []byte) events.Envelope {
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "question-service",
		SchemaVersion: 1,
		Data:          payload,
	}
}

type testUser struct {
	ID    string
	Token string
}

func doJSON(t *testing.T, server *Server, method string, path string, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
}

func registerUser(t *testing.T, server *Server, username string) testUser {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"Secret123"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var session struct {
		AccessToken string `json:"access_token"`
		User        struct {
			UserID string `json:"user_id"`
		} `json:"user"`
	}
	decodeBody(t, rr, &session)
	return testUser{ID: session.User.UserID, Token: session.AccessToken}
}

func createQuestion(t *testing.T, server *Server, author testUser) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/questions", author.Token,
		`{"title":"How do I close a channel safely?","description":"Closing twice panics, what is the usual pattern?","tags":["go","channels"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var question struct {
		QuestionID string `json:"question_id"`
	}
	decodeBody(t, rr, &question)
	return question.QuestionID
}

func createAnswer(t *testing.T, server *Server, author testUser, questionID string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/answers", author.Token,
		`{"content":"Only the sender should close the channel."}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var answer struct {
		AnswerID string `json:"answer_id"`
	}
	decodeBody(t, rr, &answer)
	return answer.AnswerID
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMetricsEndpointServesExposition(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("go_goroutines")) {
		t.Fatalf("expected go collector output, got %s", rr.Body.String())
	}
}

func TestLoginReturnsSessionForRegisteredUser(t *testing.T) {
	server := newTestServer()
	registerUser(t, server, "alice")

	rr := doJSON(t, server, http.MethodPost, "/api/auth/login", "", `{"email":"ALICE@example.com","password":"Secret123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"Wrong1234"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	server := newTestServer()
	registerUser(t, server, "alice")

	rr := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice2","email":"alice@example.com","password":"Secret123"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterRejectsMalformedJSON(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/auth/register", "", `{"username":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMeReturnsCallerWithEmail(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")

	rr := doJSON(t, server, http.MethodGet, "/api/auth/me", alice.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var user struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	decodeBody(t, rr, &user)
	if user.UserID != alice.ID || user.Email != "alice@example.com" {
		t.Fatalf("unexpected me payload: %+v", user)
	}
}

func TestUserProfileIncludesContentStats(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodGet, "/api/users/Alice", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var profile struct {
		Email string `json:"email"`
		Stats struct {
			Questions int `json:"questions"`
		} `json:"stats"`
	}
	decodeBody(t, rr, &profile)
	if profile.Email != "" {
		t.Fatalf("expected email to be hidden on public profile, got %q", profile.Email)
	}
	if profile.Stats.Questions != 1 {
		t.Fatalf("expected 1 question, got %d", profile.Stats.Questions)
	}
}

func TestCreateQuestionRequiresBearerToken(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/questions", "",
		`{"title":"How do I close a channel safely?","description":"Closing twice panics, what is the usual pattern?","tags":["go"]}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetQuestionRejectsInvalidBearerToken(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodGet, "/api/questions/"+questionID, "not-a-jwt", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/questions/"+questionID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected anonymous read to succeed, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListQuestionsRejectsNonNumericLimit(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/api/questions?limit=abc", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Code != "invalid_limit" {
		t.Fatalf("expected invalid_limit, got %q", body.Code)
	}
}

func TestUpdateQuestionForbiddenForNonAuthor(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodPut, "/api/questions/"+questionID, bob.Token, `{"title":"Bob rewrote this title"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoteOnQuestionUpdatesScore(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", bob.Token, `{"direction":"up"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var vote struct {
		VoteScore int    `json:"vote_score"`
		UserVote  string `json:"user_vote"`
	}
	decodeBody(t, rr, &vote)
	if vote.VoteScore != 1 || vote.UserVote != "up" {
		t.Fatalf("unexpected vote response: %+v", vote)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/posts/"+questionID+"/votes", bob.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var state struct {
		Upvotes  int    `json:"upvotes"`
		UserVote string `json:"user_vote"`
	}
	decodeBody(t, rr, &state)
	if state.Upvotes != 1 || state.UserVote != "up" {
		t.Fatalf("unexpected vote state: %+v", state)
	}
}

func TestVoteOnOwnQuestionForbidden(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", alice.Token, `{"direction":"up"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Code != "self_vote_forbidden" {
		t.Fatalf("expected self_vote_forbidden, got %q", body.Code)
	}
}

func TestVoteRejectsUnknownDirection(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", bob.Token, `{"direction":"sideways"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoteOnMissingPostReturnsNotFound(t *testing.T) {
	server := newTestServer()
	bob := registerUser(t, server, "bob")

	rr := doJSON(t, server, http.MethodPost, "/api/answers/missing/vote", bob.Token, `{"direction":"down"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAcceptAnswerRequiresQuestionAuthor(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)
	answerID := createAnswer(t, server, bob, questionID)

	rr := doJSON(t, server, http.MethodPost, "/api/answers/"+answerID+"/accept", bob.Token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/answers/"+answerID+"/accept", alice.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var accepted struct {
		IsAccepted bool   `json:"is_accepted"`
		QuestionID string `json:"question_id"`
	}
	decodeBody(t, rr, &accepted)
	if !accepted.IsAccepted || accepted.QuestionID != questionID {
		t.Fatalf("unexpected accept response: %+v", accepted)
	}
}

func TestAcceptAnswerRejectsMismatchedQuestion(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	firstQuestion := createQuestion(t, server, alice)
	secondQuestion := createQuestion(t, server, alice)
	answerID := createAnswer(t, server, bob, firstQuestion)

	rr := doJSON(t, server, http.MethodPost, "/api/answers/"+answerID+"/accept", alice.Token, `{"question_id":"`+secondQuestion+`"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDeletedQuestionRejectsVotes(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)

	rr := doJSON(t, server, http.MethodDelete, "/api/questions/"+questionID, alice.Token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", bob.Token, `{"direction":"up"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateTagRequiresAdmin(t *testing.T) {
	server := newTestServer()
	bob := registerUser(t, server, "bob")
	admin := registerUser(t, server, "admin")

	rr := doJSON(t, server, http.MethodPost, "/api/tags", bob.Token, `{"name":"generics"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/api/tags", admin.Token, `{"name":"generics","color":"#00ADD8"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestNotificationsRequireBearerToken(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/api/notifications", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestNotificationsListAndMarkRead(t *testing.T) {
	server := newTestServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")

	payload, _ := json.Marshal(map[string]string{
		"post_id":      "a-1",
		"question_id":  "q-1",
		"actor_id":     bob.ID,
		"recipient_id": alice.ID,
		"excerpt":      "How do I close a channel safely?",
	})
	_, err := server.notifications.Service.Ingest(context.Background(), eventFor("evt-1", "qa.answer.posted", payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	rr := doJSON(t, server, http.MethodGet, "/api/notifications", alice.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var list struct {
		Notifications []struct {
			NotificationID string `json:"notification_id"`
			Message        string `json:"message"`
		} `json:"notifications"`
		UnreadCount int `json:"unread_count"`
	}
	decodeBody(t, rr, &list)
	if len(list.Notifications) != 1 || list.UnreadCount != 1 {
		t.Fatalf("unexpected notification list: %+v", list)
	}
	if list.Notifications[0].Message != "bob answered your question: How do I close a channel safely?" {
		t.Fatalf("unexpected message %q", list.Notifications[0].Message)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/notifications/"+list.Notifications[0].NotificationID+"/read", bob.Token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another recipient, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/api/notifications/"+list.Notifications[0].NotificationID+"/read", alice.Token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodGet, "/api/notifications/unread-count", alice.Token, "")
	var unread struct {
		UnreadCount int `json:"unread_count"`
	}
	decodeBody(t, rr, &unread)
	if unread.UnreadCount != 0 {
		t.Fatalf("expected 0 unread, got %d", unread.UnreadCount)
	}
}

func TestHealthzReportsFailingDependency(t *testing.T) {
	server := newTestServer()
	server.AddHealthCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	rr := doJSON(t, server, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["postgres"] != "connection refused" {
		t.Fatalf("expected postgres failure in body, got %+v", body)
	}
}

// contendedPosts fails every ledger write with a version conflict once
// contended is set.
type contendedPosts struct {
	*ledgermemory.Store
	contended atomic.Bool
}

func (p *contendedPosts) SavePost(ctx context.Context, post ledgerentities.Post, expectedVersion int64) error {
	if p.contended.Load() {
		return ledgererrors.ErrVersionConflict
	}
	return p.Store.SavePost(ctx, post, expectedVersion)
}

func (p *contendedPosts) ApplyAcceptance(ctx context.Context, acceptance ledgerports.Acceptance) (ledgerports.AcceptanceResult, error) {
	if p.contended.Load() {
		return ledgerports.AcceptanceResult{}, ledgererrors.ErrVersionConflict
	}
	return p.Store.ApplyAcceptance(ctx, acceptance)
}

func newContendedServer() (*Server, *contendedPosts) {
	store := ledgermemory.NewStore(nil)
	posts := &contendedPosts{Store: store}
	ledgerModule := voteledger.NewModule(voteledger.Dependencies{
		Posts:       posts,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		MaxAttempts: 2,
		RetryBase:   time.Millisecond,
	})
	ledgerModule.Store = store
	return newTestServerWithLedger(ledgerModule), posts
}

func assertContention(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Code != "contention" {
		t.Fatalf("expected contention code, got %+v", body)
	}
}

func TestLedgerContentionReturnsRetryableUnavailable(t *testing.T) {
	server, posts := newContendedServer()
	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")
	questionID := createQuestion(t, server, alice)
	answerID := createAnswer(t, server, bob, questionID)
	posts.contended.Store(true)

	assertContention(t, doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", bob.Token, `{"direction":"up"}`))
	assertContention(t, doJSON(t, server, http.MethodPost, "/api/answers/"+answerID+"/vote", alice.Token, `{"direction":"down"}`))
	assertContention(t, doJSON(t, server, http.MethodPost, "/api/answers/"+answerID+"/accept", alice.Token, ""))

	posts.contended.Store(false)
	rr := doJSON(t, server, http.MethodPost, "/api/questions/"+questionID+"/vote", bob.Token, `{"direction":"up"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once contention clears, got %d body=%s", rr.Code, rr.Body.String())
	}

	posts.contended.Store(true)
	assertContention(t, doJSON(t, server, http.MethodDelete, "/api/questions/"+questionID, alice.Token, ""))
}

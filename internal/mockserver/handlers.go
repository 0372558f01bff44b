package mockserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/chatstream/auth"
	apperrors "github.com/kbukum/chatstream/errors"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/playground"
	"github.com/kbukum/chatstream/server"
	"github.com/kbukum/chatstream/server/middleware"
	"github.com/kbukum/chatstream/validation"
	"github.com/kbukum/chatstream/version"
)

type handlers struct {
	cfg    Config
	store  *Store
	tokens *auth.TokenService
	hasher auth.Hasher
	agents map[string]Agent
	order  []string
	log    *logger.Logger
}

func (h *handlers) register(r gin.IRouter, metrics *observability.RequestMetrics) {
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.health)
	r.POST("/login", h.login)
	r.GET("/v1/playground/status", h.status)
	r.GET("/v1/playground/agents", h.listAgents)
	r.POST("/v1/playground/agents/:agent_id/runs", h.run)

	authed := r.Group("/", middleware.Auth(middleware.AuthConfig{TokenValidator: h.validate}))
	authed.POST("/new-session", h.newSession)
	authed.GET("/sessions", h.sessions)
	authed.GET("/get-sessions", h.sessionSummaries)
	authed.GET("/sessions/:session_id", h.session)
	authed.DELETE("/delete-session/:session_id", h.deleteSession)
	authed.GET("/chats/:session_id", h.chats)
	authed.GET("/get-messages", h.messages)
	authed.POST("/send-message", h.sendMessage)
}

func (h *handlers) validate(token string) (any, error) {
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, ok := h.store.User(claims.Username())
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return u, nil
}

// optionalUser returns the bearer user of an unauthenticated route, if the
// request carries a valid token.
func (h *handlers) optionalUser(c *gin.Context) (User, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return User{}, false
	}
	u, err := h.validate(token)
	if err != nil {
		return User{}, false
	}
	return u.(User), true
}

func currentUser(c *gin.Context) User {
	u, _ := c.Get(middleware.ContextKeyUser)
	user, _ := u.(User)
	return user
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "agent_initialized": len(h.agents) > 0})
}

// status folds the store and agent checks into one report. Agents that do
// not implement observability.HealthChecker count as up. Any component
// reporting down turns the response into a 503.
func (h *handlers) status(c *gin.Context) {
	checkers := []observability.HealthChecker{h.store}
	for _, id := range h.order {
		if hc, ok := h.agents[id].(observability.HealthChecker); ok {
			checkers = append(checkers, hc)
			continue
		}
		checkers = append(checkers, staticHealth{Name: "agent:" + id, Status: observability.HealthStatusUp})
	}
	sh := observability.NewServiceHealth("playground", version.Get().Version).
		Check(c.Request.Context(), checkers...)

	code := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, sh)
}

type staticHealth observability.Health

func (s staticHealth) CheckHealth(context.Context) observability.Health {
	return observability.Health(s)
}

func (h *handlers) listAgents(c *gin.Context) {
	out := make([]playground.Agent, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.agents[id].Info())
	}
	server.RespondOK(c, out)
}

func (h *handlers) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" {
		server.RespondWithError(c, apperrors.MissingField("username"))
		return
	}

	u, ok := h.store.User(username)
	if !ok || h.hasher.Verify(password, u.PasswordHash) != nil {
		server.RespondWithError(c, apperrors.Unauthorized("Invalid username or password"))
		return
	}
	token, err := h.tokens.Issue(auth.Identity{Username: u.Username, Role: u.Role})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.Debug("user logged in", map[string]interface{}{logger.FieldUser: u.Username})
	server.RespondOK(c, playground.Token{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        u.Role,
		Location:    u.Location,
		Description: u.Description,
	})
}

func sessionOut(s Session, title string) playground.SessionOut {
	return playground.SessionOut{
		SessionID:   s.ID,
		Username:    s.Username,
		SessionName: title,
		CreatedAt:   playground.ISOTime{Time: s.CreatedAt},
	}
}

func (h *handlers) newSession(c *gin.Context) {
	s := h.store.CreateSession(currentUser(c), nameNewChat)
	server.RespondOK(c, sessionOut(s, s.Name))
}

func (h *handlers) sessions(c *gin.Context) {
	list := h.store.Sessions(currentUser(c).ID)
	out := make([]playground.SessionOut, 0, len(list))
	for _, s := range list {
		out = append(out, sessionOut(s, h.store.Title(s)))
	}
	server.RespondOK(c, out)
}

func (h *handlers) sessionSummaries(c *gin.Context) {
	list := h.store.Sessions(currentUser(c).ID)
	out := make([]playground.SessionSummary, 0, len(list))
	for _, s := range list {
		out = append(out, playground.SessionSummary{
			SessionID:    s.ID,
			Title:        h.store.Title(s),
			CreatedAt:    s.CreatedAt.Unix(),
			UserID:       s.UserID,
			Username:     s.Username,
			MessageCount: h.store.MessageCount(s.ID),
		})
	}
	server.RespondOK(c, out)
}

func (h *handlers) session(c *gin.Context) {
	u := currentUser(c)
	s, ok := h.store.Session(u.ID, c.Param("session_id"))
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("Session", c.Param("session_id")))
		return
	}
	chats := h.store.Chats(u.ID, s.ID)
	msgs := make([]playground.SessionMessage, 0, len(chats))
	for _, ch := range chats {
		msgs = append(msgs, playground.SessionMessage{
			ID:        ch.ID,
			Role:      ch.Role,
			Content:   ch.Content,
			CreatedAt: ch.CreatedAt.Unix(),
		})
	}
	server.RespondOK(c, playground.SessionDetail{
		SessionID: s.ID,
		Title:     h.store.Title(s),
		CreatedAt: s.CreatedAt.Unix(),
		UserID:    s.UserID,
		Username:  s.Username,
		Messages:  msgs,
	})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if !h.store.DeleteSession(currentUser(c).ID, c.Param("session_id")) {
		server.RespondWithError(c, apperrors.NotFound("Session", c.Param("session_id")))
		return
	}
	server.RespondMessage(c, "Session deleted successfully")
}

func chatMessage(ch Chat, u User) playground.ChatMessage {
	m := playground.ChatMessage{
		Role:      ch.Role,
		Content:   ch.Content,
		CreatedAt: ch.CreatedAt.UnixMilli(),
		SessionID: ch.SessionID,
	}
	if ch.Role == playground.RoleUser {
		m.Username = u.Username
	}
	return m
}

func (h *handlers) chats(c *gin.Context) {
	u := currentUser(c)
	list := h.store.Chats(u.ID, c.Param("session_id"))
	if len(list) == 0 {
		server.RespondWithError(c, apperrors.New(apperrors.ErrCodeNotFound,
			"Session not found or no chats in this session for this user", http.StatusNotFound))
		return
	}
	out := make([]playground.ChatMessage, 0, len(list))
	for _, ch := range list {
		out = append(out, chatMessage(ch, u))
	}
	server.RespondOK(c, out)
}

func (h *handlers) messages(c *gin.Context) {
	u := currentUser(c)
	list := h.store.UserChats(u.ID)
	out := make([]playground.ChatMessage, 0, len(list))
	for _, ch := range list {
		out = append(out, chatMessage(ch, u))
	}
	server.RespondOK(c, out)
}

type sendMessageRequest struct {
	Text      string  `json:"text" validate:"required"`
	SessionID *string `json:"session_id"`
}

// sessionFor returns the session a message goes to. An empty id starts a
// new session.
func (h *handlers) sessionFor(u User, id string) (Session, error) {
	if id == "" {
		return h.store.CreateSession(u, nameLoading), nil
	}
	s, ok := h.store.Session(u.ID, id)
	if !ok {
		return Session{}, apperrors.New(apperrors.ErrCodeNotFound,
			"Session not found or does not belong to user", http.StatusNotFound)
	}
	return s, nil
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("invalid request body").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	u := currentUser(c)
	id := ""
	if req.SessionID != nil {
		id = *req.SessionID
	}
	s, err := h.sessionFor(u, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	userChat := h.store.AddChat(u.ID, s.ID, playground.RoleUser, req.Text)
	reply := h.reply(c, userChat.Content, s.ID, u.Username)
	agentChat := h.store.AddChat(u.ID, s.ID, playground.RoleAgent, reply)

	server.RespondOK(c, playground.SendResult{
		Response:     reply,
		SessionID:    s.ID,
		UserMessage:  chatMessage(userChat, u),
		AgentMessage: chatMessage(agentChat, u),
	})
}

// reply runs the first registered agent and returns its final content.
func (h *handlers) reply(c *gin.Context, text, sessionID, username string) string {
	if len(h.order) == 0 {
		return ""
	}
	chunks := h.agents[h.order[0]].Run(c.Request.Context(), RunInput{
		Message:   text,
		SessionID: sessionID,
		RunID:     uuid.NewString(),
		Username:  username,
	})
	return finalContent(chunks)
}

func finalContent(chunks []playground.RunResponse) string {
	for i := len(chunks) - 1; i >= 0; i-- {
		switch chunks[i].Event {
		case playground.RunCompleted, playground.RunError:
			return chunks[i].Text()
		}
	}
	return ""
}

func (h *handlers) run(c *gin.Context) {
	agent, ok := h.agents[c.Param("agent_id")]
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("Agent", c.Param("agent_id")))
		return
	}
	message := c.PostForm("message")
	if message == "" {
		server.RespondWithError(c, apperrors.MissingField("message"))
		return
	}

	var files []string
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["files"] {
			files = append(files, fh.Filename)
		}
	}

	sessionID := c.PostForm("session_id")
	u, authed := h.optionalUser(c)
	if authed {
		s, err := h.sessionFor(u, sessionID)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		sessionID = s.ID
		h.store.AddChat(u.ID, s.ID, playground.RoleUser, message)
	} else if sessionID == "" {
		sessionID = uuid.NewString()
	}

	chunks := agent.Run(c.Request.Context(), RunInput{
		Message:   message,
		SessionID: sessionID,
		RunID:     uuid.NewString(),
		Username:  u.Username,
		Files:     files,
	})
	if authed {
		h.store.AddChat(u.ID, sessionID, playground.RoleAgent, finalContent(chunks))
	}

	if c.DefaultPostForm("stream", "true") != "true" {
		server.RespondOK(c, chunks[len(chunks)-1])
		return
	}
	h.stream(c, chunks)
}

// stream writes chunks as concatenated JSON cut every ChunkBytes bytes,
// flushing after each write.
func (h *handlers) stream(c *gin.Context, chunks []playground.RunResponse) {
	var buf bytes.Buffer
	offsets := make([]int, 0, len(chunks))
	for _, ch := range chunks {
		data, err := json.Marshal(ch)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		buf.Write(data)
		offsets = append(offsets, buf.Len())
	}
	payload := buf.Bytes()

	c.Header("Content-Type", "application/json")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	written := 0
	for _, end := range cuts(offsets, h.cfg.ChunkBytes, len(payload)) {
		if _, err := c.Writer.Write(payload[written:end]); err != nil {
			h.log.Debug("stream write failed", map[string]interface{}{logger.FieldError: err.Error()})
			return
		}
		c.Writer.Flush()
		written = end
		if h.cfg.ChunkDelay > 0 && written < len(payload) {
			select {
			case <-time.After(h.cfg.ChunkDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// cuts returns the end offsets of each write: the object boundaries when
// size is 0, otherwise every size bytes.
func cuts(objectEnds []int, size, total int) []int {
	if size <= 0 {
		return objectEnds
	}
	var out []int
	for end := size; end < total; end += size {
		out = append(out, end)
	}
	return append(out, total)
}

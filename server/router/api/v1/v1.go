// Package v1 implements the JSON API under /api/v1.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zenvahq/zenva/internal/profile"
	"github.com/zenvahq/zenva/plugin/ai"
	"github.com/zenvahq/zenva/plugin/ai/rag"
	"github.com/zenvahq/zenva/plugin/ai/speech"
	"github.com/zenvahq/zenva/server/assistant"
	"github.com/zenvahq/zenva/server/middleware"
	"github.com/zenvahq/zenva/store"
)

// APIV1Service wires the HTTP handlers to the store and AI services.
type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	Retriever   *rag.Retriever
	Indexer     *rag.Indexer
	Engine      *assistant.Engine
	Synthesizer speech.Synthesizer

	rateLimiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service and assembles the assistant
// pipeline from the profile. With AI disabled the assistant runs in degraded
// mode and semantic search is unavailable.
func NewAPIV1Service(secret string, prof *profile.Profile, st *store.Store) *APIV1Service {
	service := &APIV1Service{
		Secret:      secret,
		Profile:     prof,
		Store:       st,
		rateLimiter: middleware.NewRateLimiter(100*time.Millisecond, 20),
	}

	engineOpts := []assistant.EngineOption{}

	if prof.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(prof)
		if err := aiConfig.Validate(); err != nil {
			slog.Warn("AI disabled: invalid configuration", slog.String("error", err.Error()))
		} else {
			embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
			if err != nil {
				slog.Warn("embedding service unavailable", slog.String("error", err.Error()))
			} else {
				service.Retriever = rag.NewRetriever(embeddingService, st, rag.Config{
					TopK:      prof.MemoryTopK,
					Threshold: float32(prof.MemoryThreshold),
					Model:     prof.AIEmbeddingModel,
				})
				service.Indexer = rag.NewIndexer(embeddingService, st, prof.AIEmbeddingModel)
				engineOpts = append(engineOpts, assistant.WithMemory(service.Retriever))
			}

			llmService, err := ai.NewLLMService(&aiConfig.LLM)
			if err != nil {
				slog.Warn("chat model unavailable, assistant degraded", slog.String("error", err.Error()))
			} else {
				engineOpts = append(engineOpts,
					assistant.WithInterpreter(assistant.NewInterpreter(llmService)))
			}

			if prof.IsVoiceEnabled() {
				transcriber, err := speech.NewTranscriber(&aiConfig.Speech)
				if err != nil {
					slog.Warn("speech-to-text unavailable", slog.String("error", err.Error()))
				} else {
					engineOpts = append(engineOpts, assistant.WithTranscriber(transcriber))
				}
				synthesizer, err := speech.NewSynthesizer(&aiConfig.Speech)
				if err != nil {
					slog.Warn("text-to-speech unavailable", slog.String("error", err.Error()))
				} else {
					service.Synthesizer = synthesizer
					engineOpts = append(engineOpts, assistant.WithSynthesizer(synthesizer))
				}
			}
		}
	}

	var indexer assistant.NoteIndexer
	if service.Indexer != nil {
		indexer = service.Indexer
		engineOpts = append(engineOpts, assistant.WithIndexer(indexer))
	}
	engineOpts = append(engineOpts,
		assistant.WithDispatcher(assistant.NewDispatcher(st, indexer)))

	service.Engine = assistant.NewEngine(st, engineOpts...)
	return service
}

// Register mounts all /api/v1 routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	apiV1 := e.Group("/api/v1")

	apiV1.POST("/auth/signup", s.SignUp)
	apiV1.POST("/auth/signin", s.SignIn)

	authed := apiV1.Group("", s.authMiddleware, middleware.PerUserRateLimit(s.rateLimiter, userKeyFromContext))

	authed.GET("/auth/me", s.Me)

	authed.POST("/tasks", s.CreateTask)
	authed.GET("/tasks", s.ListTasks)
	authed.GET("/tasks/:id", s.GetTask)
	authed.PATCH("/tasks/:id", s.UpdateTask)
	authed.DELETE("/tasks/:id", s.DeleteTask)

	authed.POST("/goals", s.CreateGoal)
	authed.GET("/goals", s.ListGoals)
	authed.PATCH("/goals/:id", s.UpdateGoal)
	authed.DELETE("/goals/:id", s.DeleteGoal)

	authed.POST("/focus-sessions", s.StartFocusSession)
	authed.GET("/focus-sessions", s.ListFocusSessions)
	authed.POST("/focus-sessions/:id/complete", s.CompleteFocusSession)
	authed.DELETE("/focus-sessions/:id", s.DeleteFocusSession)

	authed.POST("/moods", s.LogMood)
	authed.GET("/moods", s.ListMoods)
	authed.DELETE("/moods/:id", s.DeleteMood)

	authed.POST("/notes", s.CreateNote)
	authed.GET("/notes", s.ListNotes)
	authed.POST("/notes/search", s.SearchNotes)
	authed.DELETE("/notes/:id", s.DeleteNote)

	authed.GET("/conversations", s.ListConversations)
	authed.GET("/conversations/:id/messages", s.ListConversationMessages)
	authed.DELETE("/conversations/:id", s.DeleteConversation)

	authed.POST("/assistant/chat", s.AssistantChat)
	authed.POST("/assistant/voice", s.AssistantVoice)
	authed.GET("/assistant/state", s.AssistantState)
}

func userKeyFromContext(c echo.Context) (int32, bool) {
	userID, ok := c.Get(userIDContextKey).(int32)
	return userID, ok
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, &errorResponse{Code: "INVALID_ARGUMENT", Message: msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, &errorResponse{Code: "NOT_FOUND", Message: msg})
}

func internalError(c echo.Context, err error) error {
	slog.Error("request failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, &errorResponse{Code: "INTERNAL", Message: "something went wrong"})
}

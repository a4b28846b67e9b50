package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
)

// API serves the REST surface next to the WebSocket endpoint.
type API struct {
	service *app.QuizService
	ws      *WSHandler
	logger  *zap.Logger
}

func NewAPI(service *app.QuizService, ws *WSHandler, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{service: service, ws: ws, logger: logger}
}

// Router builds the gin engine with every route registered.
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(a.logger))

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/ws", gin.WrapF(a.ws.ServeWS))
	router.GET("/topics", a.listTopics)

	lb := router.Group("/leaderboard")
	lb.GET("", a.listLeaderboard)
	lb.GET("/top", a.topLeaderboard)
	lb.POST("/clear-requests", a.requestClear)
	lb.DELETE("/clear-requests/:id", a.cancelClear)
	lb.DELETE("", a.clearLeaderboard)

	router.GET("/theme", a.getTheme)
	router.POST("/theme/toggle", a.toggleTheme)
	return router
}

type leaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type themeResponse struct {
	Dark bool `json:"dark"`
}

func (a *API) listTopics(c *gin.Context) {
	topics, err := a.service.Topics(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (a *API) listLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, leaderboardResponse{Entries: a.service.Leaderboard().List(c.Request.Context())})
}

func (a *API) topLeaderboard(c *gin.Context) {
	limit := a.service.PreviewSize()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Code: "bad_request", Message: "limit must be an integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, leaderboardResponse{Entries: a.service.Leaderboard().TopRanked(c.Request.Context(), limit)})
}

func (a *API) requestClear(c *gin.Context) {
	c.JSON(http.StatusCreated, a.service.Leaderboard().RequestClear())
}

func (a *API) cancelClear(c *gin.Context) {
	if !a.service.Leaderboard().CancelClear(c.Param("id")) {
		c.JSON(http.StatusNotFound, errorBody{Code: "confirmation_not_found", Message: "no pending clear request with that id"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) clearLeaderboard(c *gin.Context) {
	if err := a.service.Leaderboard().Clear(c.Request.Context(), c.Query("confirmation")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, themeResponse{Dark: a.service.Theme().Dark(c.Request.Context())})
}

func (a *API) toggleTheme(c *gin.Context) {
	dark, err := a.service.Theme().Toggle(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, themeResponse{Dark: dark})
}

func (a *API) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), newErrorBody(err))
}

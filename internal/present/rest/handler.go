package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/present/rest/middleware"
	"github.com/totegamma/repoindex/internal/present/rest/presenter"
	"github.com/totegamma/repoindex/internal/usecase"
)

const maxLimit = 100

// NotificationSubscriber streams live notifications for one did.
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, did string, output chan<- domain.NotificationEvent) error
}

type Handler struct {
	record       *usecase.RecordUsecase
	feed         *usecase.FeedUsecase
	notification *usecase.NotificationUsecase
	user         *usecase.UserUsecase
	auth         *middleware.AuthMiddleware
	subscriber   NotificationSubscriber
}

func NewHandler(
	record *usecase.RecordUsecase,
	feed *usecase.FeedUsecase,
	notification *usecase.NotificationUsecase,
	user *usecase.UserUsecase,
	subscriber NotificationSubscriber,
) *Handler {
	return &Handler{
		record:       record,
		feed:         feed,
		notification: notification,
		user:         user,
		auth:         middleware.NewAuthMiddleware(user),
		subscriber:   subscriber,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1", h.auth.IdentifyIdentity)

	api.POST("/users", h.handleRegister)
	api.GET("/users/:user", h.handleGetUser)
	api.PUT("/users/me/password", h.handleChangePassword, middleware.RequireRequester)

	api.POST("/validate", h.handleValidate)
	api.GET("/record", h.handleGetRecord)
	api.PUT("/record", h.handlePutRecord, middleware.RequireRequester)
	api.DELETE("/record", h.handleDeleteRecord, middleware.RequireRequester)

	api.GET("/repo/:repo", h.handleDescribeRepo)
	api.PUT("/repo/:repo/root", h.handleUpdateRoot, middleware.RequireRequester)
	api.GET("/repo/:repo/:collection", h.handleListRecords)

	api.GET("/feed", h.handleFeed, middleware.RequireRequester)

	api.GET("/notifications", h.handleNotifications, middleware.RequireRequester)
	api.GET("/notifications/count", h.handleNotificationCount, middleware.RequireRequester)
	api.POST("/notifications/seen", h.handleNotificationsSeen, middleware.RequireRequester)
	api.GET("/notifications/stream", h.handleNotificationStream, middleware.RequireRequester)
}

type registerRequest struct {
	Did      string `json:"did"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.Register(ctx, domain.RegisterUserInput{
		Did:      req.Did,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, user)
}

func (h *Handler) handleGetUser(c echo.Context) error {
	user, err := h.user.Get(c.Request().Context(), c.Param("user"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, user)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleChangePassword(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.user.ChangePassword(c.Request().Context(), requester, req.Password); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type validateRequest struct {
	Collection string         `json:"collection"`
	Record     map[string]any `json:"record"`
}

func (h *Handler) handleValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	return presenter.OK(c, h.record.Validate(req.Collection, req.Record))
}

func (h *Handler) handleGetRecord(c echo.Context) error {
	uri, err := repoindex.ParseURI(c.QueryParam("uri"))
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid uri")
	}

	value, err := h.record.Get(c.Request().Context(), uri)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"uri": uri.String(), "value": value})
}

type putRecordRequest struct {
	URI      repoindex.RecordURI `json:"uri"`
	Record   map[string]any      `json:"record"`
	Validate *bool               `json:"validate,omitempty"`
}

func (h *Handler) handlePutRecord(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	var req putRecordRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.URI.Did != requester {
		return presenter.Forbidden(c, "records can only be written to your own repository")
	}

	err := h.record.Put(c.Request().Context(), usecase.PutRecordInput{
		URI:            req.URI,
		Record:         req.Record,
		SkipValidation: req.Validate != nil && !*req.Validate,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"uri": req.URI.String()})
}

func (h *Handler) handleDeleteRecord(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	uri, err := repoindex.ParseURI(c.QueryParam("uri"))
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid uri")
	}
	if uri.Did != requester {
		return presenter.Forbidden(c, "records can only be deleted from your own repository")
	}

	if err := h.record.Delete(c.Request().Context(), uri); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleDescribeRepo(c echo.Context) error {
	desc, err := h.record.DescribeRepo(c.Request().Context(), c.Param("repo"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, desc)
}

type rootRequest struct {
	Root string `json:"root"`
}

func (h *Handler) handleUpdateRoot(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)
	if c.Param("repo") != requester {
		return presenter.Forbidden(c, "only the owner can move a repository root")
	}

	var req rootRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Root == "" {
		return presenter.BadRequestMessage(c, "root is required")
	}

	if err := h.record.UpdateRoot(c.Request().Context(), requester, req.Root); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleListRecords(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid limit parameter")
	}

	q := domain.ListRecordsQuery{
		Did:        c.Param("repo"),
		Collection: c.Param("collection"),
		Limit:      limit,
		Reverse:    c.QueryParam("reverse") == "true",
		Before:     optionalParam(c, "before"),
		After:      optionalParam(c, "after"),
	}

	records, err := h.record.List(c.Request().Context(), q)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"records": records})
}

func (h *Handler) handleFeed(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	limit, err := parseLimit(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid limit parameter")
	}

	algorithm := domain.FeedAlgorithm(c.QueryParam("algorithm"))
	switch algorithm {
	case "", domain.FeedAlgorithmFirehose, domain.FeedAlgorithmReverseChronological:
	default:
		return presenter.BadRequestMessage(c, "unknown algorithm")
	}

	page, err := h.feed.Get(c.Request().Context(), domain.FeedQuery{
		Requester: requester,
		Algorithm: algorithm,
		Limit:     limit,
		Before:    optionalParam(c, "before"),
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleNotifications(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	limit, err := parseLimit(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid limit parameter")
	}

	notifications, err := h.notification.List(c.Request().Context(), requester, limit, optionalParam(c, "before"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"notifications": notifications})
}

func (h *Handler) handleNotificationCount(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	count, err := h.notification.CountUnread(c.Request().Context(), requester)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"count": count})
}

type seenRequest struct {
	SeenAt time.Time `json:"seenAt"`
}

func (h *Handler) handleNotificationsSeen(c echo.Context) error {
	requester, _ := middleware.RequesterDid(c)

	var req seenRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.notification.MarkSeen(c.Request().Context(), requester, req.SeenAt); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleNotificationStream(c echo.Context) error {
	if h.subscriber == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime notifications are disabled"})
	}
	requester, _ := middleware.RequesterDid(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Str("module", "socket").Msg("failed to upgrade websocket")
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.NotificationEvent)
	go func() {
		if err := h.subscriber.Subscribe(ctx, requester, output); err != nil {
			log.Error().Err(err).Str("module", "socket").Msg("notification subscription failed")
		}
		cancel()
	}()

	// the reader only watches for the client going away
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("module", "socket").Msg("websocket closed")
				}
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("error writing message")
				return nil
			}
		}
	}
}

func parseLimit(c echo.Context) (int, error) {
	limitStr := c.QueryParam("limit")
	if limitStr == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, err
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

func optionalParam(c echo.Context, name string) *string {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}

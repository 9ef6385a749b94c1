package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex/internal/infra/database"
	"github.com/totegamma/repoindex/internal/present/rest"
	"github.com/totegamma/repoindex/internal/usecase"
)

type client struct {
	t *testing.T
	e *echo.Echo
}

func newServer(t *testing.T) *client {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Options{
		Driver:     database.DriverSqlite,
		SqlitePath: database.MemoryPath,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTables(ctx))

	users := usecase.NewUserUsecase(db)
	handler := rest.NewHandler(
		usecase.NewRecordUsecase(db, db),
		usecase.NewFeedUsecase(db),
		usecase.NewNotificationUsecase(db),
		users,
		nil,
	)

	e := echo.New()
	handler.RegisterRoutes(e)
	return &client{t: t, e: e}
}

func (c *client) do(method, target, body string, auth ...string) (int, map[string]any) {
	c.t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if len(auth) == 2 {
		req.SetBasicAuth(auth[0], auth[1])
	}

	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	}
	return rec.Code, payload
}

func (c *client) register(did, username string) {
	c.t.Helper()
	code, _ := c.do(http.MethodPost, "/api/v1/users",
		`{"did":"`+did+`","username":"`+username+`","email":"`+username+`@example.test","password":"pw-`+username+`"}`)
	require.Equal(c.t, http.StatusOK, code)
}

func TestRecordLifecycle(t *testing.T) {
	c := newServer(t)
	c.register("did:plc:alice", "alice")
	c.register("did:plc:bob", "bob")
	alice := []string{"alice", "pw-alice"}
	bob := []string{"bob", "pw-bob"}

	post := `{"uri":"at://did:plc:bob/app.bsky.post/p1","record":{"text":"hello","createdAt":"2022-11-01T10:00:00.000Z"}}`
	code, _ := c.do(http.MethodPut, "/api/v1/record", post, bob...)
	require.Equal(t, http.StatusOK, code)

	like := `{"uri":"at://did:plc:alice/app.bsky.like/l1","record":{"subject":"at://did:plc:bob/app.bsky.post/p1","createdAt":"2022-11-01T10:01:00.000Z"}}`
	code, _ = c.do(http.MethodPut, "/api/v1/record", like, alice...)
	require.Equal(t, http.StatusOK, code)

	code, body := c.do(http.MethodGet, "/api/v1/record?uri="+url.QueryEscape("at://did:plc:bob/app.bsky.post/p1"), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", body["value"].(map[string]any)["text"])

	code, body = c.do(http.MethodGet, "/api/v1/repo/bob/app.bsky.post", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["records"], 1)

	code, body = c.do(http.MethodGet, "/api/v1/repo/did:plc:bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"app.bsky.post"}, body["collections"])

	code, body = c.do(http.MethodGet, "/api/v1/notifications/count", "", bob...)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = c.do(http.MethodGet, "/api/v1/feed?algorithm=firehose", "", alice...)
	require.Equal(t, http.StatusOK, code)
	feed := body["feed"].([]any)
	require.Len(t, feed, 1)
	item := feed[0].(map[string]any)
	assert.EqualValues(t, 1, item["likeCount"])
	assert.Equal(t, "at://did:plc:alice/app.bsky.like/l1", item["myState"].(map[string]any)["like"])

	code, _ = c.do(http.MethodDelete, "/api/v1/record?uri="+url.QueryEscape("at://did:plc:alice/app.bsky.like/l1"), "", alice...)
	require.Equal(t, http.StatusOK, code)

	code, body = c.do(http.MethodGet, "/api/v1/notifications/count", "", bob...)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
}

func TestWriteRequiresOwner(t *testing.T) {
	c := newServer(t)
	c.register("did:plc:alice", "alice")

	post := `{"uri":"at://did:plc:bob/app.bsky.post/p1","record":{"text":"hello","createdAt":"2022-11-01T10:00:00.000Z"}}`

	code, _ := c.do(http.MethodPut, "/api/v1/record", post)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodPut, "/api/v1/record", post, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodPut, "/api/v1/record", post, "alice", "pw-alice")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPutRejectsInvalidRecord(t *testing.T) {
	c := newServer(t)
	c.register("did:plc:alice", "alice")

	code, body := c.do(http.MethodPut, "/api/v1/record",
		`{"uri":"at://did:plc:alice/app.bsky.post/p1","record":{"text":42}}`, "alice", "pw-alice")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid", body["code"])

	code, body = c.do(http.MethodPost, "/api/v1/validate", `{"collection":"app.bsky.unknown","record":{}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "incompatible", body["code"])
}

func TestGetMissingRecord(t *testing.T) {
	c := newServer(t)

	code, _ := c.do(http.MethodGet, "/api/v1/record?uri="+url.QueryEscape("at://did:plc:alice/app.bsky.post/none"), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodGet, "/api/v1/record?uri=https://example.com", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

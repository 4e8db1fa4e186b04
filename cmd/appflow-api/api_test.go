package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/appflow/pkg/channels/gochannel"
	"github.com/dukex/appflow/pkg/eventbus"
	"github.com/dukex/appflow/pkg/events"
	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, bus eventbus.EventBus) *fiber.App {
	t.Helper()

	api := NewAPI(slog.Default(), file.NewPersistence(t.TempDir()), bus, nil)

	return api.App()
}

func send(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, body := send(t, app, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "appflow API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, body := send(t, app, http.MethodGet, path, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(body))
	}

	resp, _ := send(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CORS(t *testing.T) {
	app := setupTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.Header.Set("Origin", "http://example.com")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_FullLifecycle(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, body := send(t, app, http.MethodPost, "/applications", `{"name":"X","content":"Y"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Application
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ = send(t, app, http.MethodPut, "/applications/"+created.ID+"/content", `{"content":"Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = send(t, app, http.MethodPost, "/verify-application/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = send(t, app, http.MethodPost, "/reject-application/"+created.ID, `{"cause":"c"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rejected models.Application
	require.NoError(t, json.Unmarshal(body, &rejected))
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "Z", rejected.Content)

	resp, _ = send(t, app, http.MethodPost, "/publish-application/"+created.ID, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = send(t, app, http.MethodGet, "/applications/"+created.ID+"/events", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var changes []models.ChangeEvent
	require.NoError(t, json.Unmarshal(body, &changes))
	require.Len(t, changes, 4)
	assert.Equal(t, models.StatusCreated, changes[1].Status)
	assert.Equal(t, "Z", changes[1].Content)
}

func TestAPI_PublishesNotifications(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub, slog.Default())
	defer bus.Close()

	received := make(chan *events.ApplicationChanged, 1)
	require.NoError(t, bus.Handle(events.ApplicationChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.ApplicationChanged)

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	app := setupTestApp(t, bus)

	resp, body := send(t, app, http.MethodPost, "/applications", `{"name":"X","content":"Y"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Application
	require.NoError(t, json.Unmarshal(body, &created))

	select {
	case notification := <-received:
		assert.Equal(t, created.ID, notification.ApplicationID)
		assert.Equal(t, models.StatusCreated, notification.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not published")
	}
}

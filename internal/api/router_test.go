package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/models"
	"github.com/lmoren/listly-be/internal/services"
	"github.com/lmoren/listly-be/internal/websocket"
)

type fakeStats struct{}

func (fakeStats) Latest() models.HostStats { return models.HostStats{} }

// newTestServer wires the full router over an in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	auth.Init("router-test-secret")

	store := docstore.NewMemoryStore()
	hub := websocket.NewHub()
	go hub.Run()

	eventService := services.NewEventService(store)
	userService := services.NewUserService(store)
	listService := services.NewListService(store, eventService, hub)
	sharingService := services.NewSharingService(store, listService, userService, eventService, hub)

	router := NewRouter(hub, userService, listService, sharingService, eventService, fakeStats{}, "*")
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func onboard(t *testing.T, srv *httptest.Server, username string) (string, models.User) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/onboard", "", map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token, body.User
}

func TestRouter_OnboardAndListFlow(t *testing.T) {
	srv := newTestServer(t)
	token, _ := onboard(t, srv, "ana")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists", token, map[string]string{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var list models.List
	decodeBody(t, resp, &list)
	assert.Equal(t, "Groceries", list.Name)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/lists/%s/items", srv.URL, list.ID), token, map[string]string{"name": "Milk"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item models.Item
	decodeBody(t, resp, &item)
	assert.Equal(t, "Milk", item.Name)
	assert.False(t, item.Checked)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/lists/%s/items/%s/toggle", srv.URL, list.ID, item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.List
	decodeBody(t, resp, &updated)
	require.Len(t, updated.Items, 1)
	assert.True(t, updated.Items[0].Checked)
}

func TestRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/lists", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_DuplicateUsernameConflicts(t *testing.T) {
	srv := newTestServer(t)
	onboard(t, srv, "ana")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/onboard", "", map[string]string{"username": "ana"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_OnlyOwnerMayDelete(t *testing.T) {
	srv := newTestServer(t)
	ownerToken, _ := onboard(t, srv, "ana")
	otherToken, _ := onboard(t, srv, "ben")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists", ownerToken, map[string]string{"name": "Hardware"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var list models.List
	decodeBody(t, resp, &list)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/lists/"+list.ID, otherToken, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/lists/"+list.ID, ownerToken, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRouter_SharingFlow(t *testing.T) {
	srv := newTestServer(t)
	ownerToken, _ := onboard(t, srv, "ana")
	memberToken, member := onboard(t, srv, "ben")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists", ownerToken, map[string]string{"name": "Trip"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var list models.List
	decodeBody(t, resp, &list)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/lists/%s/share", srv.URL, list.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var share struct {
		InvitationCode string `json:"invitationCode"`
	}
	decodeBody(t, resp, &share)
	require.Len(t, share.InvitationCode, 8)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/lists/join", memberToken, map[string]string{"invitationCode": share.InvitationCode})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joined struct {
		ListID string `json:"listId"`
	}
	decodeBody(t, resp, &joined)
	assert.Equal(t, list.ID, joined.ListID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/lists/shared", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shared []models.List
	decodeBody(t, resp, &shared)
	require.Len(t, shared, 1)
	assert.Contains(t, shared[0].SharedWith, member.ID)
}

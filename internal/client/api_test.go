package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

func TestCreateSession_WrapsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/minigames", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: "minigame area already exists"})
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL+"/", srv.Client()).CreateSession(context.Background(), types.CreateSessionRequest{})
	require.ErrorIs(t, err, ErrSessionCreation)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "session creation failed: minigame area already exists", err.Error())
}

func TestAPIError_FallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, srv.Client()).ListAreas(context.Background(), "town-1")
	require.EqualError(t, err, "list areas: Bad Gateway")
}

func TestListAreas_EscapesTown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/towns/my%20town/minigames", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(types.AreaListResponse{Areas: []types.AreaDescriptor{{Label: "a", PlayersByID: []string{"alice"}}}})
	}))
	defer srv.Close()

	list, err := NewAPIClient(srv.URL, srv.Client()).ListAreas(context.Background(), "my town")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, list[0].PlayersByID)
}

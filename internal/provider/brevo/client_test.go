package brevo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New("test-key", "sender@example.com", "Sender",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	return c, srv
}

func TestUpsertContactCreated(t *testing.T) {
	var got map[string]interface{}
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contacts", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	require.NoError(t, c.UpsertContact(context.Background(), "ann@example.com", "Ann Lee"))

	assert.Equal(t, "ann@example.com", got["email"])
	assert.Equal(t, true, got["updateEnabled"])
	attrs := got["attributes"].(map[string]interface{})
	assert.Equal(t, "Ann", attrs["FIRSTNAME"])
	assert.Equal(t, "Lee", attrs["LASTNAME"])
}

func TestUpsertContactConflictIsSuccess(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer srv.Close()

	assert.NoError(t, c.UpsertContact(context.Background(), "ann@example.com", "Ann"))
}

func TestUpsertContactRejected(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	assert.Error(t, c.UpsertContact(context.Background(), "ann@example.com", "Ann"))
}

func TestSendEmailReturnsMessageID(t *testing.T) {
	var got map[string]interface{}
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/smtp/email", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"messageId": "M1"})
	})
	defer srv.Close()

	id, err := c.SendEmail(context.Background(), "ann@example.com", "Ann", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "M1", id)

	sender := got["sender"].(map[string]interface{})
	assert.Equal(t, "sender@example.com", sender["email"])
	to := got["to"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ann@example.com", to["email"])
	assert.Equal(t, "Hello", got["subject"])
}

func TestSendEmailRejected(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"sender not verified"}`, http.StatusBadRequest)
	})
	defer srv.Close()

	_, err := c.SendEmail(context.Background(), "ann@example.com", "Ann", "Hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender not verified")
}

func TestMessageEvents(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/smtp/emails/M1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"events": []map[string]string{
				{"name": "request"},
				{"name": "delivered"},
			},
		})
	})
	defer srv.Close()

	events, err := c.MessageEvents(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, []string{"request", "delivered"}, events)
}

func TestMessageEventsNotFoundIsEmpty(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	events, err := c.MessageEvents(context.Background(), "M1")
	require.NoError(t, err)
	assert.Nil(t, events)
}

func TestDeleteContactEscapesEmail(t *testing.T) {
	var gotPath string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	require.NoError(t, c.DeleteContact(context.Background(), "ann+tag@example.com"))
	assert.Equal(t, "/contacts/ann+tag@example.com", gotPath)
}

func TestDeleteContactGoneIsSuccess(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	assert.NoError(t, c.DeleteContact(context.Background(), "ann@example.com"))
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Ann Lee Smith")
	assert.Equal(t, "Ann", first)
	assert.Equal(t, "Lee Smith", last)

	first, last = splitName("Ann")
	assert.Equal(t, "Ann", first)
	assert.Empty(t, last)
}

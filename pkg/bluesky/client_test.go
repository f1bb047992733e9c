package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrank/pkg/errors"
	"skyrank/pkg/logger"
)

func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientLogin(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.server.createSession": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"accessJwt": "access-token",
				"refreshJwt": "refresh-token",
				"handle": "alice.bsky.social",
				"did": "did:plc:abc123"
			}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	session, err := client.Login(context.Background(), "alice.bsky.social", "app-password")
	require.NoError(t, err)
	assert.Equal(t, "alice.bsky.social", session.Handle)
	assert.Equal(t, "did:plc:abc123", session.DID)
	assert.Equal(t, "access-token", session.AccessJWT)
}

func TestClientLoginFailure(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.server.createSession": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "AuthenticationRequired", "message": "Invalid identifier or password"}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	_, err := client.Login(context.Background(), "alice.bsky.social", "wrong-password")
	require.Error(t, err)

	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errors.ErrorTypeAuth, typed.Type)
}

func TestClientTimeline(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/app.bsky.feed.getTimeline": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "reverse-chronological", r.URL.Query().Get("algorithm"))
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"cursor": "next-page",
				"feed": [
					{
						"post": {
							"uri": "at://did:plc:abc/app.bsky.feed.post/1",
							"cid": "bafy1",
							"author": {"did": "did:plc:abc", "handle": "alice.bsky.social"},
							"indexedAt": "2026-08-25T10:00:05Z",
							"record": {
								"$type": "app.bsky.feed.post",
								"text": "first post",
								"createdAt": "2026-08-25T10:00:00Z"
							}
						}
					},
					{
						"post": {
							"uri": "at://did:plc:abc/app.bsky.feed.post/2",
							"cid": "bafy2",
							"author": {"did": "did:plc:abc", "handle": "alice.bsky.social"},
							"indexedAt": "2026-08-25T09:00:05Z",
							"record": {
								"$type": "app.bsky.feed.post",
								"text": "second post",
								"createdAt": "2026-08-25T09:00:00Z"
							}
						}
					},
					{
						"post": {
							"uri": "at://did:plc:abc/app.bsky.feed.post/3",
							"cid": "bafy3",
							"author": {"did": "did:plc:abc", "handle": "alice.bsky.social"},
							"indexedAt": "2026-08-25T08:00:05Z",
							"record": {
								"$type": "app.bsky.feed.post",
								"text": "bad timestamp",
								"createdAt": "not-a-timestamp"
							}
						}
					}
				]
			}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	page, err := client.Timeline(context.Background(), "", 50)
	require.NoError(t, err)
	assert.Equal(t, "next-page", page.Cursor)

	// The post with an unparseable timestamp is skipped
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/1", page.Posts[0].URI)
	assert.Equal(t, "first post", page.Posts[0].Text)
	assert.Equal(t, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), page.Posts[0].CreatedAt.UTC())
}

func TestClientTimelineFetchError(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/app.bsky.feed.getTimeline": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	_, err := client.Timeline(context.Background(), "", 100)
	require.Error(t, err)

	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errors.ErrorTypeFetch, typed.Type)
	assert.True(t, errors.IsFatal(typed.Type))
}

func TestClientEngagementCounts(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/app.bsky.feed.getPostThread": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/1", r.URL.Query().Get("uri"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"thread": {
					"$type": "app.bsky.feed.defs#threadViewPost",
					"post": {
						"uri": "at://did:plc:abc/app.bsky.feed.post/1",
						"cid": "bafy1",
						"author": {"did": "did:plc:abc", "handle": "alice.bsky.social"},
						"indexedAt": "2026-08-25T10:00:05Z",
						"record": {
							"$type": "app.bsky.feed.post",
							"text": "first post",
							"createdAt": "2026-08-25T10:00:00Z"
						},
						"likeCount": 42,
						"repostCount": 7,
						"replyCount": 3
					}
				}
			}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	counts, err := client.EngagementCounts(context.Background(), "at://did:plc:abc/app.bsky.feed.post/1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), counts.Likes)
	assert.Equal(t, int64(7), counts.Reposts)
	assert.Equal(t, int64(3), counts.Replies)
}

func TestClientEngagementCountsMissing(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/app.bsky.feed.getPostThread": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"thread": {
					"$type": "app.bsky.feed.defs#threadViewPost",
					"post": {
						"uri": "at://did:plc:abc/app.bsky.feed.post/1",
						"cid": "bafy1",
						"author": {"did": "did:plc:abc", "handle": "alice.bsky.social"},
						"indexedAt": "2026-08-25T10:00:05Z",
						"record": {
							"$type": "app.bsky.feed.post",
							"text": "first post",
							"createdAt": "2026-08-25T10:00:00Z"
						}
					}
				}
			}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	counts, err := client.EngagementCounts(context.Background(), "at://did:plc:abc/app.bsky.feed.post/1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Likes)
	assert.Equal(t, int64(0), counts.Reposts)
	assert.Equal(t, int64(0), counts.Replies)
}

func TestClientEngagementCountsLookupError(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/xrpc/app.bsky.feed.getPostThread": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": "NotFound", "message": "Post not found"}`)
		},
	})

	client := NewClient(server.URL, nil, logger.NewTestLogger())

	_, err := client.EngagementCounts(context.Background(), "at://did:plc:abc/app.bsky.feed.post/gone")
	require.Error(t, err)

	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errors.ErrorTypeLookup, typed.Type)
	assert.False(t, errors.IsFatal(typed.Type))
}

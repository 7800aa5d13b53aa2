package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Raj-Devo/Muzer/internal/media"
)

func TestHandleSubmitItem_Success(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if strings.Contains(sql, "INSERT INTO items") {
						return &MockRow{ScanFunc: func(dest ...any) error {
							*dest[0].(*int) = 0
							*dest[1].(*time.Time) = time.Now()
							return nil
						}}
					}
					return &MockRow{}
				},
			}, nil
		},
	}
	svc := NewService(mockDB, nil, stubResolver{video: media.Video{
		ID:           "dQw4w9WgXcQ",
		Title:        "Some Song",
		ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg",
	}})
	r := NewServer(svc).Router()

	body, _ := json.Marshal(map[string]string{"url": "https://youtu.be/dQw4w9WgXcQ"})
	req := httptest.NewRequest("POST", "/rooms/creator-1/items", bytes.NewReader(body))
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	var it Item
	if err := json.Unmarshal(w.Body.Bytes(), &it); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if it.ID == "" || it.MediaRef != "dQw4w9WgXcQ" || it.State != StatePending {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.RoomID != "creator-1" {
		t.Errorf("expected room creator-1, got %s", it.RoomID)
	}
}

func TestHandleSubmitItem_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		body     string
		resolver stubResolver
		wantCode int
	}{
		{
			name:     "missing user context",
			userID:   "",
			body:     `{"url":"https://youtu.be/dQw4w9WgXcQ"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "empty url",
			userID:   "user-1",
			body:     `{"url":"  "}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid JSON",
			userID:   "user-1",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unresolvable url",
			userID:   "user-1",
			body:     `{"url":"https://example.com/not-a-video"}`,
			resolver: stubResolver{err: media.ErrInvalidURL},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockDB{}, nil, tt.resolver)
			r := NewServer(svc).Router()

			req := httptest.NewRequest("POST", "/rooms/creator-1/items", strings.NewReader(tt.body))
			if tt.userID != "" {
				req.Header.Set("X-User-Id", tt.userID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d. Body: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleGetQueue(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					// no item currently playing
					return &MockRow{ScanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
				},
				QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
					return NewMockRows([][]any{
						{"item-a", "First", "http://a", 3, true},
						{"item-b", "Second", "http://b", 1, false},
					}), nil
				},
			}, nil
		},
	}
	srv, _ := newTestServer(mockDB)
	r := srv.Router()

	req := httptest.NewRequest("GET", "/rooms/creator-1/queue", nil)
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	var state RoomState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if state.NowPlaying != nil {
		t.Errorf("expected no playing item, got %+v", state.NowPlaying)
	}
	if len(state.Queue) != 2 || state.Queue[0].ID != "item-a" || state.Queue[1].ID != "item-b" {
		t.Fatalf("unexpected queue: %+v", state.Queue)
	}
	if !state.Queue[0].HaveVoted || state.Queue[1].HaveVoted {
		t.Errorf("unexpected haveVoted flags: %+v", state.Queue)
	}
}

func TestHandleRemoveItem_Forbidden(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if strings.Contains(sql, "SELECT creator_id") {
						return &MockRow{ScanFunc: func(dest ...any) error {
							*dest[0].(*string) = "creator-1"
							return nil
						}}
					}
					return &MockRow{}
				},
			}, nil
		},
	}
	srv, _ := newTestServer(mockDB)
	r := srv.Router()

	req := httptest.NewRequest("DELETE", "/rooms/creator-1/items/item-1", nil)
	req.Header.Set("X-User-Id", "participant-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d. Body: %s", w.Code, w.Body.String())
	}
}

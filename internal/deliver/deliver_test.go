package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wneessen/go-mail"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmail_Send(t *testing.T) {
	t.Parallel()

	t.Run("builds message with subject body and attachment", func(t *testing.T) {
		t.Parallel()

		zipPath := writeArtifact(t, "One Year Report.zip", "PK")

		var raw bytes.Buffer
		send := func(_ context.Context, msg *mail.Msg) error {
			_, err := msg.WriteTo(&raw)
			return err
		}

		e := NewEmail("reports@example.com", []string{"a@example.com", "b@example.com"}, WithSendFunc(send))
		err := e.Send(context.Background(), Message{
			Subject:     "One Year Report Generated Report",
			Body:        "Please find the attached reports.",
			Attachments: []string{zipPath},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := raw.String()
		for _, want := range []string{
			"Subject: One Year Report Generated Report",
			"<reports@example.com>",
			"<a@example.com>",
			"<b@example.com>",
			"Please find the attached reports.",
			"One Year Report.zip",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in message:\n%s", want, out)
			}
		}
	})

	t.Run("missing attachment fails the email", func(t *testing.T) {
		t.Parallel()

		called := false
		e := NewEmail("reports@example.com", []string{"a@example.com"}, WithSendFunc(func(context.Context, *mail.Msg) error {
			called = true
			return nil
		}))
		err := e.Send(context.Background(), Message{Attachments: []string{filepath.Join(t.TempDir(), "nope.zip")}})
		if !errors.Is(err, ErrMissingAttachment) {
			t.Errorf("expected ErrMissingAttachment, got %v", err)
		}
		if called {
			t.Error("expected nothing to be sent")
		}
	})

	t.Run("transport error is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("535 authentication failed")
		e := NewEmail("reports@example.com", []string{"a@example.com"}, WithSendFunc(func(context.Context, *mail.Msg) error {
			return boom
		}))
		if err := e.Send(context.Background(), Message{Subject: "s"}); !errors.Is(err, boom) {
			t.Errorf("expected wrapped transport error, got %v", err)
		}
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()

		if _, err := NewEmail("", []string{"a@example.com"}).Build(Message{}); !errors.Is(err, ErrNoSender) {
			t.Errorf("expected ErrNoSender, got %v", err)
		}
		if _, err := NewEmail("r@example.com", nil).Build(Message{}); !errors.Is(err, ErrNoRecipients) {
			t.Errorf("expected ErrNoRecipients, got %v", err)
		}
		if _, err := NewEmail("not an address", []string{"a@example.com"}).Build(Message{}); err == nil {
			t.Error("expected invalid sender error")
		}
	})
}

// fakeBotAPI answers getMe and sendDocument and records uploads.
type fakeBotAPI struct {
	mu      sync.Mutex
	uploads []upload
	getMe   int
}

type upload struct {
	chatID   string
	caption  string
	filename string
	content  string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		f.mu.Lock()
		f.getMe++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 42, "is_bot": true, "first_name": "Reports", "username": "reports_bot"},
		})
	case strings.HasSuffix(r.URL.Path, "/sendDocument"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		file.Close()

		f.mu.Lock()
		f.uploads = append(f.uploads, upload{
			chatID:   r.FormValue("chat_id"),
			caption:  r.FormValue("caption"),
			filename: header.Filename,
			content:  string(data),
		})
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": -1002164741954, "type": "channel"}},
		})
	default:
		http.NotFound(w, r)
	}
}

func TestTelegram_SendDocument(t *testing.T) {
	t.Parallel()

	t.Run("uploads docx and pdf as separate documents", func(t *testing.T) {
		t.Parallel()

		api := &fakeBotAPI{}
		srv := httptest.NewServer(api)
		defer srv.Close()

		tg := NewTelegram("123456:test-token", "-1002164741954",
			WithEndpoint(srv.URL+"/bot%s/%s"),
			WithTelegramHTTPClient(srv.Client()),
		)

		docx := writeArtifact(t, "One Year Report.docx", "docx")
		pdf := writeArtifact(t, "One Year Report.pdf", "pdf")
		ctx := context.Background()
		if err := tg.SendDocument(ctx, docx, "Here is your generated One Year Report (Word)."); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := tg.SendDocument(ctx, pdf, "Here is your generated One Year Report (PDF)."); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if api.getMe != 1 {
			t.Errorf("expected the bot to be created once, got %d getMe calls", api.getMe)
		}
		if len(api.uploads) != 2 {
			t.Fatalf("expected 2 uploads, got %d", len(api.uploads))
		}
		first := api.uploads[0]
		if first.chatID != "-1002164741954" || first.filename != "One Year Report.docx" || first.content != "docx" {
			t.Errorf("unexpected first upload %+v", first)
		}
		if api.uploads[1].caption != "Here is your generated One Year Report (PDF)." {
			t.Errorf("unexpected caption %q", api.uploads[1].caption)
		}
	})

	t.Run("channel name", func(t *testing.T) {
		t.Parallel()

		api := &fakeBotAPI{}
		srv := httptest.NewServer(api)
		defer srv.Close()

		tg := NewTelegram("123456:test-token", "fieldreports",
			WithEndpoint(srv.URL+"/bot%s/%s"),
			WithTelegramHTTPClient(srv.Client()),
		)
		if err := tg.SendDocument(context.Background(), writeArtifact(t, "r.pdf", "x"), "c"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.uploads[0].chatID != "@fieldreports" {
			t.Errorf("expected @fieldreports, got %q", api.uploads[0].chatID)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		err := NewTelegram("", "1").SendDocument(context.Background(), writeArtifact(t, "r.pdf", "x"), "c")
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("expected ErrNoToken, got %v", err)
		}
	})

	t.Run("missing chat", func(t *testing.T) {
		t.Parallel()

		err := NewTelegram("123:abc", " ").SendDocument(context.Background(), writeArtifact(t, "r.pdf", "x"), "c")
		if !errors.Is(err, ErrNoChat) {
			t.Errorf("expected ErrNoChat, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		err := NewTelegram("123:abc", "1").SendDocument(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), "c")
		if !errors.Is(err, ErrMissingAttachment) {
			t.Errorf("expected ErrMissingAttachment, got %v", err)
		}
	})
}

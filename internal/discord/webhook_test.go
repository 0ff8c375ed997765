package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"gamedigest/internal/digest"
)

func TestFormatDigest(t *testing.T) {
	items := []digest.Item{
		{Source: "Battlefield Official", Title: "Season 4 arrives", URL: "https://www.ea.com/s4"},
		{Source: "r/battlefield6", Title: "Recoil megathread", URL: "https://redd.it/x"},
	}
	want := "**Battlefield 6 - Top 2**\n\n" +
		"1. [Battlefield Official] Season 4 arrives - <https://www.ea.com/s4>\n" +
		"2. [r/battlefield6] Recoil megathread - <https://redd.it/x>\n"
	if diff := cmp.Diff(want, FormatDigest("Battlefield 6 - Top 2", items)); diff != "" {
		t.Errorf("FormatDigest mismatch (-want +got):\n%s", diff)
	}

	empty := FormatDigest("Arc Raiders - Top 5", nil)
	if !strings.Contains(empty, "No new content found today.") {
		t.Errorf("empty digest message = %q", empty)
	}
}

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []payload
	statuses []int // per-request response status, 204 after the list runs out
}

func (r *webhookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var p payload
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		r.payloads = append(r.payloads, p)
		status := http.StatusNoContent
		if n := len(r.payloads) - 1; n < len(r.statuses) {
			status = r.statuses[n]
		}
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "0.01")
		}
		w.WriteHeader(status)
	}
}

func (r *webhookRecorder) contents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.payloads))
	for i, p := range r.payloads {
		out[i] = p.Content
	}
	return out
}

func TestSendChunksLongContent(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %03d %s", i, strings.Repeat("x", 111))
	}
	content := strings.Join(lines, "\n")

	s := NewWebhookSender(srv.URL, "Game Digest", 3, time.Millisecond)
	if err := s.Send(context.Background(), content); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	got := rec.contents()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > maxMessageLen {
			t.Errorf("message %d has %d runes", i, n)
		}
	}
	if rejoined := strings.Join(got, "\n"); rejoined != content {
		t.Errorf("chunks do not reassemble the content.\nwant %d bytes, got %d", len(content), len(rejoined))
	}
	// Chunks break between lines, never inside one.
	for i, c := range got {
		for _, line := range strings.Split(c, "\n") {
			if len(line) != 120 {
				t.Errorf("message %d contains a partial line of %d chars", i, len(line))
			}
		}
	}
}

func TestSendRetriesOn429(t *testing.T) {
	rec := &webhookRecorder{statuses: []int{http.StatusTooManyRequests, http.StatusTooManyRequests}}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", 3, time.Millisecond)
	if err := s.Send(context.Background(), "season 4 digest"); err != nil {
		t.Fatalf("Send error after retries: %v", err)
	}
	if got := len(rec.contents()); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestSendFailsAfterMaxRetries(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		io.Copy(io.Discard, r.Body)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", 2, time.Millisecond)
	err := s.Send(context.Background(), "season 4 digest")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status=500") {
		t.Errorf("error = %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 attempts, got %d", count)
	}
}

func TestSendFile(t *testing.T) {
	var (
		gotPayload  payload
		gotFilename string
		gotBytes    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload_json")), &gotPayload); err != nil {
			t.Errorf("decode payload_json: %v", err)
		}
		f, hdr, err := r.FormFile("files[0]")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotBytes, _ = io.ReadAll(f)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.webp")
	if err := os.WriteFile(cover, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write cover: %v", err)
	}

	s := NewWebhookSender(srv.URL, "Game Digest", 1, time.Millisecond)
	if err := s.SendFile(context.Background(), "**Battlefield 6 - Top 5**", cover); err != nil {
		t.Fatalf("SendFile error: %v", err)
	}
	if gotPayload.Content != "**Battlefield 6 - Top 5**" {
		t.Errorf("payload content = %q", gotPayload.Content)
	}
	if gotPayload.Username != "Game Digest" {
		t.Errorf("payload username = %q", gotPayload.Username)
	}
	if gotFilename != "cover.webp" {
		t.Errorf("filename = %q", gotFilename)
	}
	if string(gotBytes) != "RIFFfake" {
		t.Errorf("file bytes = %q", gotBytes)
	}
}

func TestSendError(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "Game Digest", 1, time.Millisecond)
	if err := s.SendError(context.Background(), "redis unreachable"); err != nil {
		t.Fatalf("SendError: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.payloads) != 1 || len(rec.payloads[0].Embeds) != 1 {
		t.Fatalf("expected one embed payload, got %+v", rec.payloads)
	}
	e := rec.payloads[0].Embeds[0]
	if e.Title != "Digest Error" {
		t.Errorf("embed title = %q", e.Title)
	}
	if e.Color != errorColor {
		t.Errorf("embed color = %d", e.Color)
	}
	if e.Description != "redis unreachable" {
		t.Errorf("embed description = %q", e.Description)
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("embed timestamp %q: %v", e.Timestamp, err)
	}
}

func TestNilSender(t *testing.T) {
	if s := NewWebhookSender("   ", "bot", 3, time.Second); s != nil {
		t.Fatal("expected nil sender for blank URL")
	}
	var s *WebhookSender
	if err := s.Send(context.Background(), "x"); err == nil {
		t.Error("nil Send should error")
	}
	if err := s.SendDigest(context.Background(), "h", nil); err == nil {
		t.Error("nil SendDigest should error")
	}
	if err := s.SendError(context.Background(), "x"); err == nil {
		t.Error("nil SendError should error")
	}
	if err := s.SendFile(context.Background(), "x", "nope"); err == nil {
		t.Error("nil SendFile should error")
	}
}

func TestSplitMessage(t *testing.T) {
	cases := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"exact fit", "aaaa\nbbbb", 9, []string{"aaaa\nbbbb"}},
		{"line boundary", "aaaa\nbbbb", 8, []string{"aaaa", "bbbb"}},
		{"overlong line", strings.Repeat("a", 25), 10, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), "aaaaa"}},
		{"blank line kept", "a\n\nb", 10, []string{"a\n\nb"}},
		{"trailing newline trimmed", "abc\n", 10, []string{"abc"}},
		{"empty", "", 10, nil},
		{"multibyte runes", strings.Repeat("é", 12), 10, []string{strings.Repeat("é", 10), "éé"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, splitMessage(tc.content, tc.limit)); diff != "" {
				t.Errorf("splitMessage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

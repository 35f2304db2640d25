package portrait

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) (*GeminiGenerator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gen, err := NewGeminiGenerator(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "gemini-2.5-flash-image",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}
	return gen, srv
}

func TestGeminiGenerateSuccess(t *testing.T) {
	wantImage := []byte{0x89, 0x50, 0x4e, 0x47}

	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash-image:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key query param")
		}

		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("unexpected request shape: %+v", req)
		}
		if req.Contents[0].Parts[0].InlineData == nil {
			t.Errorf("expected first part to carry the source photo")
		}
		if !strings.Contains(req.Contents[0].Parts[1].Text, "portrait") {
			t.Errorf("expected a portrait instruction, got %q", req.Contents[0].Parts[1].Text)
		}

		writeJSON(t, w, geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				FinishReason: "STOP",
				Content: geminiContent{Parts: []geminiPart{{
					InlineData: &geminiInlineData{
						MimeType: "image/png",
						Data:     base64.StdEncoding.EncodeToString(wantImage),
					},
				}}},
			}},
		})
	})

	res, err := gen.Generate(context.Background(), Request{
		Image:       []byte("source-bytes"),
		ContentType: "image/jpeg",
		Style:       domain.StyleProfessional,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(res.Data) != string(wantImage) {
		t.Errorf("unexpected image payload")
	}
	if res.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", res.ContentType)
	}
	if res.Elapsed <= 0 {
		t.Errorf("elapsed not measured")
	}
}

func TestGeminiGenerateSafetyBlocked(t *testing.T) {
	cases := []struct {
		name string
		body geminiGenerateContentResponse
	}{
		{
			name: "prompt feedback",
			body: geminiGenerateContentResponse{
				PromptFeedback: &geminiPromptFeedback{BlockReason: "SAFETY"},
			},
		},
		{
			name: "candidate finish reason",
			body: geminiGenerateContentResponse{
				Candidates: []geminiCandidate{{FinishReason: "IMAGE_SAFETY"}},
			},
		},
		{
			name: "prohibited content",
			body: geminiGenerateContentResponse{
				Candidates: []geminiCandidate{{FinishReason: "PROHIBITED_CONTENT"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tc.body)
			})

			_, err := gen.Generate(context.Background(), Request{
				Image:       []byte("source"),
				ContentType: "image/jpeg",
				Style:       domain.StyleCreative,
			})
			if !errors.Is(err, domain.ErrSafetyBlocked) {
				t.Fatalf("err = %v, want ErrSafetyBlocked", err)
			}
		})
	}
}

func TestGeminiGenerateTextOnlyReply(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				FinishReason: "STOP",
				Content: geminiContent{Parts: []geminiPart{{
					Text: "I could not find a person in this photo.",
				}}},
			}},
		})
	})

	_, err := gen.Generate(context.Background(), Request{
		Image:       []byte("source"),
		ContentType: "image/jpeg",
		Style:       domain.StyleAcademic,
	})
	if !errors.Is(err, domain.ErrNoSubject) {
		t.Fatalf("err = %v, want ErrNoSubject", err)
	}
}

func TestGeminiGenerateEmptyResponse(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, geminiGenerateContentResponse{})
	})

	_, err := gen.Generate(context.Background(), Request{
		Image:       []byte("source"),
		ContentType: "image/jpeg",
		Style:       domain.StyleMonochrome,
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestGeminiGenerateAPIError(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		var apiErr geminiErrorResponse
		apiErr.Error.Code = 429
		apiErr.Error.Message = "quota exceeded"
		writeJSON(t, w, apiErr)
	})

	_, err := gen.Generate(context.Background(), Request{
		Image:       []byte("source"),
		ContentType: "image/jpeg",
		Style:       domain.StyleProfessional,
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should carry the api message, got %v", err)
	}
}

func TestGeminiGenerateTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	gen, err := NewGeminiGenerator(Options{
		APIKey:  "super-secret-key",
		BaseURL: srv.URL,
		Model:   "gemini-2.5-flash-image",
	})
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background(), Request{
		Image:       []byte("source"),
		ContentType: "image/jpeg",
		Style:       domain.StyleProfessional,
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if strings.Contains(err.Error(), "super-secret-key") {
		t.Errorf("transport error leaks the api key: %v", err)
	}
}

func TestGeminiGenerateEmptyImage(t *testing.T) {
	gen, _ := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for an empty image")
	})

	_, err := gen.Generate(context.Background(), Request{Style: domain.StyleProfessional})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestPromptForFallsBack(t *testing.T) {
	if promptFor(domain.Style("bogus")) != stylePrompts[domain.StyleProfessional] {
		t.Errorf("unknown style should fall back to the professional prompt")
	}
	for _, style := range domain.Styles() {
		if strings.TrimSpace(promptFor(style)) == "" {
			t.Errorf("style %s has no prompt", style)
		}
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// hasModel asks /api/tags whether the configured model is installed.
func (h *Host) hasModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("creating tags request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("ollama tags request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, fmt.Errorf("ollama tags failed (status %d): %s", resp.StatusCode, respBody)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decoding tags: %w", err)
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, h.model) || sameModel(m.Model, h.model) {
			return true, nil
		}
	}
	return false, nil
}

// sameModel compares model references, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if !strings.Contains(a, ":") {
		a += ":latest"
	}
	if !strings.Contains(b, ":") {
		b += ":latest"
	}
	return a == b
}

func (h *Host) newChatRequest(ctx context.Context, system, user string, stream, jsonFormat bool) (*http.Request, error) {
	body := chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  stream,
		Options: map[string]any{"temperature": 0.2},
	}
	if jsonFormat {
		body.Format = "json"
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// chat sends one non-streaming chat turn and returns the assistant content.
func (h *Host) chat(ctx context.Context, system, user string, jsonFormat bool) (string, error) {
	req, err := h.newChatRequest(ctx, system, user, false, jsonFormat)
	if err != nil {
		return "", err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ollama chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama chat: %s", chatResp.Error)
	}

	h.logger.Debug("chat complete", "model", h.model, "content_length", len(chatResp.Message.Content))
	return chatResp.Message.Content, nil
}

// chatStream sends a streaming chat turn. Ollama answers with one JSON object
// per line, each carrying the next piece of content; the sequence yields the
// accumulated content after every piece.
func (h *Host) chatStream(ctx context.Context, system, user string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req, err := h.newChatRequest(ctx, system, user, true, false)
		if err != nil {
			yield("", err)
			return
		}

		resp, err := h.client.Do(req)
		if err != nil {
			yield("", fmt.Errorf("ollama chat request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			yield("", fmt.Errorf("ollama chat failed (status %d): %s", resp.StatusCode, respBody))
			return
		}

		var acc strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				yield("", fmt.Errorf("decoding chat chunk: %w", err))
				return
			}
			if chunk.Error != "" {
				yield("", fmt.Errorf("ollama chat: %s", chunk.Error))
				return
			}
			if chunk.Message.Content != "" {
				acc.WriteString(chunk.Message.Content)
				if !yield(acc.String(), nil) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
			yield("", fmt.Errorf("reading chat stream: %w", err))
		}
	}
}

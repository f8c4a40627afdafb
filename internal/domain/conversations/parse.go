package conversations

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrMalformedExport means a JSON export could not be decoded.
var ErrMalformedExport = errors.New("malformed conversation export")

// Parse accepts either a JSON export or a plain "role: content" transcript.
// JSON may be an array of messages or an object with a "messages" array.
func Parse(data []byte) ([]Message, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return parseJSON([]byte(trimmed))
	}
	return ParseTranscript(trimmed), nil
}

type jsonMessage struct {
	Role      string `json:"role"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	Topic     string `json:"topic"`
	Timestamp string `json:"timestamp"`
}

func parseJSON(data []byte) ([]Message, error) {
	var raw []jsonMessage
	if data[0] == '{' {
		var wrapper struct {
			Messages []jsonMessage `json:"messages"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedExport, err)
		}
		raw = wrapper.Messages
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExport, err)
	}

	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		role := firstNonEmpty(m.Role, m.Author)
		content := firstNonEmpty(m.Content, m.Text)
		if strings.TrimSpace(content) == "" {
			continue
		}
		msg := Message{
			Role:    normalizeRole(role),
			Content: strings.TrimSpace(content),
			Topic:   strings.TrimSpace(m.Topic),
		}
		if m.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
				msg.Timestamp = &ts
			}
		}
		out = append(out, msg)
	}
	return out, nil
}

// ParseTranscript reads lines of the form "role: content". Lines without a
// role prefix continue the previous message. A line "# topic" sets the topic
// for the messages that follow.
func ParseTranscript(text string) []Message {
	var (
		out   []Message
		topic string
	)
	s := bufio.NewScanner(strings.NewReader(text))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			topic = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}
		if role, content, ok := splitRole(line); ok {
			out = append(out, Message{Role: role, Content: content, Topic: topic})
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].Content += "\n" + line
		}
	}
	return out
}

var rolePrefix = regexp.MustCompile(`^([A-Za-z][A-Za-z_-]{0,15}(?: [A-Za-z]{1,8})?)\s*:\s+(.+)$`)

func splitRole(line string) (string, string, bool) {
	m := rolePrefix.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return normalizeRole(m[1]), strings.TrimSpace(m[2]), true
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case "human", "me", "you", "user":
		return RoleUser
	case "ai", "bot", "chatgpt", "chat gpt", "claude", "gpt", "model", "assistant":
		return RoleAssistant
	case "":
		return RoleUser
	}
	return r
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

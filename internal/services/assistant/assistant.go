// Package assistant answers platform questions with an LLM primed with the
// viewer's profile and the open project list.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/creatormatch/creatormatch_be/internal/models"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	// Apology is returned in place of a reply when the provider fails.
	Apology = "Sorry, I had a problem processing your request. Please try again later."
	// NoReply is returned when the provider answers with no text.
	NoReply = "Sorry, I couldn't generate a response."

	descriptionPreview = 100
)

var ErrEmptyMessage = errors.New("message is required")

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Provider sends one chat exchange to an LLM.
type Provider interface {
	Name() string
	Reply(ctx context.Context, system string, history []Turn, message string) (string, error)
}

type Reply struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
}

type Service struct {
	provider Provider
	timeout  time.Duration
	log      *zap.Logger
}

func NewService(provider Provider, log *zap.Logger) *Service {
	return &Service{provider: provider, timeout: 30 * time.Second, log: log}
}

// Chat never fails on provider errors: the caller gets the apology text with
// Degraded set instead.
func (s *Service) Chat(ctx context.Context, viewer *models.User, projects []models.Project, history []Turn, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if s.provider == nil {
		return &Reply{Text: Apology, Degraded: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.provider.Reply(ctx, BuildSystemInstruction(viewer, projects), cleanHistory(history), message)
	if err != nil {
		s.log.Warn("assistant provider failed",
			zap.String("provider", s.provider.Name()),
			zap.Error(err))
		return &Reply{Text: Apology, Degraded: true}, nil
	}
	if strings.TrimSpace(text) == "" {
		return &Reply{Text: NoReply}, nil
	}
	return &Reply{Text: text}, nil
}

// cleanHistory drops empty turns and coerces unknown roles to user.
func cleanHistory(history []Turn) []Turn {
	out := make([]Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		if t.Role != RoleModel {
			t.Role = RoleUser
		}
		out = append(out, t)
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= descriptionPreview {
		return s
	}
	return string(r[:descriptionPreview])
}

// BuildSystemInstruction renders the prompt describing the platform, the
// viewer and every project in projects.
func BuildSystemInstruction(viewer *models.User, projects []models.Project) string {
	var userContext string
	if viewer == nil {
		userContext = "The user is not signed in."
	} else {
		skills := strings.Join(viewer.Skills, ", ")
		userContext = fmt.Sprintf("The current user is %s, role: %s. Specialty: %s. Skills: %s.",
			viewer.FullName(), viewer.Type,
			orDefault(viewer.Specialty, "not defined"),
			orDefault(skills, "not defined"))
	}

	blocks := make([]string, 0, len(projects))
	for _, p := range projects {
		blocks = append(blocks, fmt.Sprintf("- Project: %q (%s)\n  Budget: %s\n  Skills: %s\n  Description: %s...",
			p.Title, p.Category, p.Budget, strings.Join(p.Skills, ", "), preview(p.Description)))
	}

	var b strings.Builder
	b.WriteString("You are the official virtual assistant of CreatorMatch, a platform that connects content creators with freelancers (editors, scriptwriters, designers and more).\n\n")
	b.WriteString("Be friendly, professional and genuinely helpful.\n\n")
	b.WriteString("CURRENT CONTEXT:\n")
	b.WriteString(userContext)
	b.WriteString("\n\nPROJECTS AVAILABLE ON THE PLATFORM:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("1. If the user is a freelancer, help them find projects matching their skills. Recommend specific projects from the list above.\n")
	b.WriteString("2. If the user is a creator, advise them on writing attractive projects and choosing talent.\n")
	b.WriteString("3. Answer general questions about the platform (how it works, payments, safety).\n")
	b.WriteString("4. Keep answers short and easy to read. An occasional emoji is fine.\n")
	b.WriteString("5. If asked about something unrelated to the platform, politely say you can only help with CreatorMatch topics.\n\n")
	b.WriteString("IMPORTANT:\n")
	b.WriteString("- When you recommend a project, mention its title and budget.\n")
	b.WriteString("- Suggest next steps proactively.\n")
	return b.String()
}

// Package proposals runs the application workflow: a freelancer's proposal
// is stored and announced to the project's creator in their shared
// conversation, and the creator later accepts or rejects it.
package proposals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/creatormatch/creatormatch_be/internal/events"
	"github.com/creatormatch/creatormatch_be/internal/models"
	"github.com/creatormatch/creatormatch_be/internal/services/messaging"
	"github.com/creatormatch/creatormatch_be/internal/utils"
)

var (
	ErrUnauthenticated          = errors.New("authentication required")
	ErrUserBlocked              = errors.New("account blocked")
	ErrCreatorCannotApply       = errors.New("creators cannot submit proposals")
	ErrProjectNotFound          = errors.New("project not found")
	ErrOwnProject               = errors.New("cannot submit a proposal to your own project")
	ErrProjectNotOpen           = errors.New("project is no longer accepting proposals")
	ErrDuplicateProposal        = errors.New("you already have an open proposal on this project")
	ErrProposalNotFound         = errors.New("proposal not found")
	ErrForbidden                = errors.New("only the project owner can decide on proposals")
	ErrInvalidDecision          = errors.New("decision must be accepted or rejected")
	ErrAlreadyDecided           = errors.New("proposal has already been decided")
	ErrNotificationNotDelivered = errors.New("proposal saved but the creator could not be notified")
)

// Notifier pushes realtime events to a user's open sessions.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload interface{})
}

type Service struct {
	db       *gorm.DB
	messages *messaging.Service
	notifier Notifier
	events   events.Publisher
	log      *zap.Logger
}

func NewService(db *gorm.DB, messages *messaging.Service, notifier Notifier, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, messages: messages, notifier: notifier, events: pub, log: log}
}

type SubmitInput struct {
	CoverLetter string `json:"cover_letter"`
	Price       string `json:"price"`
	Time        string `json:"time"`
	Portfolio   string `json:"portfolio"`
}

// Submission is what a successful (or partially successful) Submit returns.
// Conversation is nil only together with ErrNotificationNotDelivered.
type Submission struct {
	Proposal     *models.Proposal
	Conversation *models.Conversation
	Message      *models.Message
}

func (in SubmitInput) validate() (SubmitInput, error) {
	out := SubmitInput{
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		Price:       strings.TrimSpace(in.Price),
		Time:        strings.TrimSpace(in.Time),
		Portfolio:   strings.TrimSpace(in.Portfolio),
	}

	errs := utils.FieldErrors{}
	if out.CoverLetter == "" {
		errs.Add("cover_letter", "cover letter is required")
	}
	if out.Price == "" {
		errs.Add("price", "price is required")
	}
	if !models.DeliveryTime(out.Time).Valid() {
		errs.Add("time", "time must be one of 24h, 3d, 1w, 2w, 1m")
	}
	if out.Portfolio != "" && !utils.IsHTTPURL(out.Portfolio) {
		errs.Add("portfolio", "portfolio must be an http or https link")
	}
	return out, errs.Err()
}

// FormatNotification renders the message the creator receives for p.
func FormatNotification(projectTitle string, p *models.Proposal) string {
	portfolio := p.Portfolio
	if portfolio == "" {
		portfolio = "not specified"
	}

	var b strings.Builder
	b.WriteString("New application!\n")
	fmt.Fprintf(&b, "Project: %s\n", projectTitle)
	fmt.Fprintf(&b, "Proposed price: %s\n", p.Price)
	fmt.Fprintf(&b, "Estimated time: %s\n", p.Time)
	b.WriteString("\nCover letter:\n")
	b.WriteString(p.CoverLetter)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Portfolio: %s", portfolio)
	return b.String()
}

// Submit stores a pending proposal from freelancer on projectID and delivers
// the formatted notification to the project's creator. Every refusal happens
// before the first write. When the proposal is stored but the message is not,
// the proposal is returned together with ErrNotificationNotDelivered.
func (s *Service) Submit(ctx context.Context, freelancer *models.User, projectID uuid.UUID, in SubmitInput) (*Submission, error) {
	if freelancer == nil {
		return nil, ErrUnauthenticated
	}
	if freelancer.IsBlocked() {
		return nil, ErrUserBlocked
	}
	if freelancer.Type == models.RoleCreator {
		return nil, ErrCreatorCannotApply
	}

	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var project models.Project
	err = db.First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project.CreatorID == freelancer.ID {
		return nil, ErrOwnProject
	}
	if project.Status != models.ProjectActive {
		return nil, ErrProjectNotOpen
	}

	var open int64
	err = db.Model(&models.Proposal{}).
		Where("project_id = ? AND freelancer_id = ? AND status IN ?", project.ID, freelancer.ID,
			[]models.ProposalStatus{models.ProposalPending, models.ProposalAccepted}).
		Count(&open).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing proposals: %w", err)
	}
	if open > 0 {
		return nil, ErrDuplicateProposal
	}

	proposal := models.Proposal{
		ProjectID:      project.ID,
		FreelancerID:   freelancer.ID,
		FreelancerName: freelancer.FullName(),
		CoverLetter:    in.CoverLetter,
		Price:          in.Price,
		Time:           models.DeliveryTime(in.Time),
		Portfolio:      in.Portfolio,
		Status:         models.ProposalPending,
	}
	// the count above can race a concurrent submit; the partial unique
	// index settles it
	if err := db.Create(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateProposal
		}
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	sub := &Submission{Proposal: &proposal}

	conv, msg, err := s.messages.Deliver(ctx,
		messaging.Party{ID: freelancer.ID, Name: freelancer.FullName()},
		messaging.Party{ID: project.CreatorID, Name: project.CreatorName},
		FormatNotification(project.Title, &proposal),
	)
	if err != nil {
		s.log.Warn("proposal stored without notification",
			zap.String("proposal_id", proposal.ID.String()),
			zap.String("creator_id", project.CreatorID.String()),
			zap.Error(err))
		s.publishSubmitted(ctx, &project, &proposal, nil)
		return sub, fmt.Errorf("%w: %v", ErrNotificationNotDelivered, err)
	}
	sub.Conversation = conv
	sub.Message = msg

	payload := map[string]interface{}{
		"conversation": conv,
		"message":      msg,
	}
	s.notifier.Notify(ctx, freelancer.ID, "new_message", payload)
	s.notifier.Notify(ctx, project.CreatorID, "new_message", payload)
	s.publishSubmitted(ctx, &project, &proposal, conv)

	s.log.Info("proposal submitted",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("conversation_id", conv.ID.String()))
	return sub, nil
}

func (s *Service) publishSubmitted(ctx context.Context, project *models.Project, p *models.Proposal, conv *models.Conversation) {
	ev := events.ProposalSubmitted{
		ProposalID:   p.ID.String(),
		ProjectID:    project.ID.String(),
		FreelancerID: p.FreelancerID.String(),
		CreatorID:    project.CreatorID.String(),
		Delivered:    conv != nil,
		Timestamp:    events.Stamp(p.CreatedAt),
	}
	if conv != nil {
		ev.ConversationID = conv.ID.String()
	}
	if err := s.events.Publish(ctx, events.SubjectProposalSubmitted, ev); err != nil {
		s.log.Warn("failed to publish proposal event", zap.Error(err))
	}
}

// Decide moves a pending proposal to accepted or rejected. Accepting also
// moves an active project to in-progress; a project already past active is
// left alone. Both writes share one transaction and are conditional on the
// current status, so a second decision gets ErrAlreadyDecided.
func (s *Service) Decide(ctx context.Context, actor *models.User, proposalID uuid.UUID, decision models.ProposalStatus) (*models.Proposal, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if decision != models.ProposalAccepted && decision != models.ProposalRejected {
		return nil, ErrInvalidDecision
	}

	var proposal models.Proposal
	err := s.db.WithContext(ctx).Preload("Project").First(&proposal, "id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}
	if proposal.Project == nil {
		return nil, ErrProjectNotFound
	}
	if !actor.IsAdmin() && proposal.Project.CreatorID != actor.ID {
		return nil, ErrForbidden
	}

	projectMoved := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Proposal{}).
			Where("id = ? AND status = ?", proposalID, models.ProposalPending).
			Update("status", decision)
		if res.Error != nil {
			return fmt.Errorf("failed to update proposal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDecided
		}

		if decision != models.ProposalAccepted {
			return nil
		}
		res = tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", proposal.ProjectID, models.ProjectActive).
			Update("status", models.ProjectInProgress)
		if res.Error != nil {
			return fmt.Errorf("failed to start project: %w", res.Error)
		}
		projectMoved = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	proposal.Status = decision
	if projectMoved {
		proposal.Project.Status = models.ProjectInProgress
	}

	now := time.Now()
	if err := s.events.Publish(ctx, events.SubjectProposalDecided, events.ProposalDecided{
		ProposalID:   proposal.ID.String(),
		ProjectID:    proposal.ProjectID.String(),
		FreelancerID: proposal.FreelancerID.String(),
		Status:       string(decision),
		Timestamp:    events.Stamp(now),
	}); err != nil {
		s.log.Warn("failed to publish proposal decision", zap.Error(err))
	}
	if projectMoved {
		if err := s.events.Publish(ctx, events.SubjectProjectStatus, events.ProjectStatusChanged{
			ProjectID: proposal.ProjectID.String(),
			From:      string(models.ProjectActive),
			To:        string(models.ProjectInProgress),
			Timestamp: events.Stamp(now),
		}); err != nil {
			s.log.Warn("failed to publish project status", zap.Error(err))
		}
	}
	s.notifier.Notify(ctx, proposal.FreelancerID, "proposal_decided", &proposal)

	s.log.Info("proposal decided",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("status", string(decision)),
		zap.Bool("project_started", projectMoved))
	return &proposal, nil
}

// ListForProject returns the proposals on a project, visible to its owner
// and to admins.
func (s *Service) ListForProject(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]models.Proposal, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if !actor.IsAdmin() && project.CreatorID != actor.ID {
		return nil, ErrForbidden
	}

	var out []models.Proposal
	err = s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return out, nil
}

// VisibleTo returns the proposals user may see: all of them for admins,
// the ones they sent for freelancers, the ones on their projects for creators.
func (s *Service) VisibleTo(ctx context.Context, user *models.User) ([]models.Proposal, error) {
	q := s.db.WithContext(ctx).Preload("Project").Order("created_at DESC")
	switch user.Type {
	case models.RoleAdmin:
	case models.RoleCreator:
		q = q.Where("project_id IN (?)",
			s.db.Model(&models.Project{}).Select("id").Where("creator_id = ?", user.ID))
	default:
		q = q.Where("freelancer_id = ?", user.ID)
	}

	var out []models.Proposal
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return out, nil
}

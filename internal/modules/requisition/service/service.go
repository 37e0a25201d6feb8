package requisition

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/requisition/dto"
	repo "pera.com/perasystem/internal/modules/requisition/repository"
	"pera.com/perasystem/pkg/apperror"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/ratelimiter"
	"pera.com/perasystem/pkg/sanitize"
	"pera.com/perasystem/pkg/storage"
)

const (
	defaultPageSize   = 50
	createAttempts    = 3
	attachmentsFolder = "requisitions"
)

// Counter reports how many of ids exist. Users, vehicles and weapons
// repositories satisfy it.
type Counter interface {
	CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, notifications ...*entity.Notification) error
}

type Options struct {
	CreateCooldown     time.Duration
	MaxAttachments     int
	MaxAttachmentBytes int64
}

type Service interface {
	Create(ctx context.Context, sub authz.Subject, req dto.CreateRequisitionRequest) (*dto.RequisitionResponse, error)
	List(ctx context.Context, sub authz.Subject, filter dto.RequisitionFilter) (*dto.RequisitionListResponse, error)
	Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.RequisitionResponse, error)
	UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest, files []commonDto.UploadedFile) (*dto.RequisitionResponse, error)
	Delete(ctx context.Context, sub authz.Subject, id uuid.UUID) error
}

type service struct {
	repo        repo.Repository
	sequencer   Sequencer
	users       Counter
	vehicles    Counter
	weapons     Counter
	files       storage.FileStorage
	notifier    Notifier
	redisClient *redis.Client
	authz       *authz.Evaluator
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

type Dependencies struct {
	Repo        repo.Repository
	Sequencer   Sequencer
	Users       Counter
	Vehicles    Counter
	Weapons     Counter
	Files       storage.FileStorage
	Notifier    Notifier
	RedisClient *redis.Client
	Authz       *authz.Evaluator
	Logger      *zap.Logger
}

func NewService(deps Dependencies, opts Options) Service {
	if opts.MaxAttachments <= 0 {
		opts.MaxAttachments = 10
	}
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = 10 << 20
	}
	return &service{
		repo:        deps.Repo,
		sequencer:   deps.Sequencer,
		users:       deps.Users,
		vehicles:    deps.Vehicles,
		weapons:     deps.Weapons,
		files:       deps.Files,
		notifier:    deps.Notifier,
		redisClient: deps.RedisClient,
		authz:       deps.Authz,
		opts:        opts,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

func (s *service) Create(ctx context.Context, sub authz.Subject, req dto.CreateRequisitionRequest) (*dto.RequisitionResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionCreate, nil); err != nil {
		return nil, err
	}

	requisition, err := s.buildRequisition(ctx, sub, req)
	if err != nil {
		return nil, err
	}

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, sub.UserID.String(), ratelimiter.ScopeRequisition, s.opts.CreateCooldown)
	if err != nil {
		s.logger.Warn("requisition rate limit check failed", zap.Error(err))
	} else if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, sub.UserID.String(), ratelimiter.ScopeRequisition)
		return nil, ratelimiter.NewRateLimitError("creating another requisition", ttl)
	}

	if err := s.insert(ctx, requisition); err != nil {
		if allowed {
			if clearErr := ratelimiter.ClearRateLimit(ctx, s.redisClient, sub.UserID.String(), ratelimiter.ScopeRequisition); clearErr != nil {
				s.logger.Warn("failed to release requisition cooldown", zap.Error(clearErr))
			}
		}
		return nil, err
	}

	s.logger.Info("requisition created",
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("request_number", requisition.RequestNumber),
		zap.String("requested_by", sub.UserID.String()),
	)

	created, err := s.repo.FindByID(ctx, requisition.ID)
	if err != nil {
		return nil, notFound(err)
	}

	recipients := make([]uuid.UUID, 0, len(created.AssignedTeam))
	for _, member := range created.AssignedTeam {
		recipients = append(recipients, member.ID)
	}
	s.notify(ctx, sub, created, recipients, entity.NotificationRequisitionAssigned,
		fmt.Sprintf("You have been assigned to requisition %s", created.RequestNumber))

	return dto.NewRequisitionResponse(created), nil
}

func (s *service) buildRequisition(ctx context.Context, sub authz.Subject, req dto.CreateRequisitionRequest) (*entity.Requisition, error) {
	fields := map[string]string{}

	description := sanitize.Text(req.Description)
	if description == "" {
		fields["description"] = "description is required"
	}
	location := sanitize.Text(req.Location)
	if location == "" {
		fields["location"] = "location is required"
	}
	if req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		fields["endTime"] = "endTime must be after startTime"
	}

	team, err := parseIDs(req.AssignedTeam)
	if err != nil {
		fields["assignedTeam"] = err.Error()
	}
	vehicles, err := parseIDs(req.AssignedVehicles)
	if err != nil {
		fields["assignedVehicles"] = err.Error()
	}
	weapons, err := parseIDs(req.AssignedWeapons)
	if err != nil {
		fields["assignedWeapons"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError(fields)
	}

	for _, ref := range []struct {
		field   string
		ids     []uuid.UUID
		counter Counter
	}{
		{"assignedTeam", team, s.users},
		{"assignedVehicles", vehicles, s.vehicles},
		{"assignedWeapons", weapons, s.weapons},
	} {
		if err := checkExisting(ctx, ref.counter, ref.field, ref.ids); err != nil {
			return nil, err
		}
	}

	requisition := &entity.Requisition{
		RequestedByID: sub.UserID,
		OperationType: req.OperationType,
		Description:   description,
		Urgency:       req.Urgency,
		Sensitivity:   req.Sensitivity,
		Status:        entity.StatusSubmitted,
		Location:      location,
		StartTime:     req.StartTime.UTC(),
		Version:       1,
	}
	if requisition.Urgency == "" {
		requisition.Urgency = entity.UrgencyMedium
	}
	if requisition.Sensitivity == "" {
		requisition.Sensitivity = entity.SensitivityNormal
	}
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		requisition.EndTime = &end
	}
	for _, id := range team {
		requisition.AssignedTeam = append(requisition.AssignedTeam, entity.User{ID: id})
	}
	for _, id := range vehicles {
		requisition.AssignedVehicles = append(requisition.AssignedVehicles, entity.Vehicle{ID: id})
	}
	for _, id := range weapons {
		requisition.AssignedWeapons = append(requisition.AssignedWeapons, entity.Weapon{ID: id})
	}
	return requisition, nil
}

// insert assigns the next request number and retries when another writer
// already took it.
func (s *service) insert(ctx context.Context, requisition *entity.Requisition) error {
	year := s.now().Year()

	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		seq, err := s.sequencer.Next(ctx, year)
		if err != nil {
			return err
		}
		requisition.RequestNumber = repo.RequestNumber(year, seq)

		lastErr = s.repo.Create(ctx, requisition)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create requisition: %w", lastErr)
		}
		s.logger.Warn("request number collision",
			zap.String("request_number", requisition.RequestNumber),
			zap.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("failed to allocate a request number: %w", lastErr)
}

func (s *service) List(ctx context.Context, sub authz.Subject, filter dto.RequisitionFilter) (*dto.RequisitionListResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionList, nil); err != nil {
		return nil, err
	}

	f := repo.Filter{
		Status:        filter.Status,
		OperationType: filter.OperationType,
		Urgency:       filter.Urgency,
	}
	if !s.authz.Can(sub, Resource, ActionListAll, nil) {
		f.VisibleTo = &sub.UserID
	}
	if filter.RequestedBy != "" {
		id, err := uuid.Parse(filter.RequestedBy)
		if err != nil {
			return nil, apperror.FieldError("requestedBy", "invalid user id")
		}
		f.RequestedByID = &id
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		start := *filter.StartDate
		// endDate names a whole day
		end := filter.EndDate.Add(24*time.Hour - time.Nanosecond)
		if end.Before(start) {
			return nil, apperror.FieldError("endDate", "endDate must not be before startDate")
		}
		f.StartDate, f.EndDate = &start, &end
	}

	offset := filter.Normalize(defaultPageSize)
	requisitions, total, err := s.repo.FindAll(ctx, f, offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}

	res := &dto.RequisitionListResponse{
		Requisitions: make([]*dto.RequisitionResponse, 0, len(requisitions)),
		Total:        total,
		Page:         filter.Page,
	}
	for _, r := range requisitions {
		res.Requisitions = append(res.Requisitions, dto.NewRequisitionResponse(r))
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.RequisitionResponse, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.authz.Authorize(sub, Resource, ActionView, requisition); err != nil {
		return nil, err
	}
	return dto.NewRequisitionResponse(requisition), nil
}

func (s *service) UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest, files []commonDto.UploadedFile) (*dto.RequisitionResponse, error) {
	if !entity.Contains(entity.UpdatableStatuses, req.Status) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidStatus, req.Status)
	}

	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.authz.Authorize(sub, Resource, StatusAction(req.Status), requisition); err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != requisition.Version {
		return nil, fmt.Errorf("requisition %s: %w", requisition.RequestNumber, apperror.ErrConflict)
	}

	update := repo.StatusUpdate{
		ID:        requisition.ID,
		Version:   requisition.Version,
		Status:    req.Status,
		Resources: resourceChange(requisition, req.Status),
	}

	switch req.Status {
	case entity.StatusSDOApproved, entity.StatusRejected:
		if req.Remarks != nil {
			remarks := sanitize.Text(*req.Remarks)
			update.SDORemarks = &remarks
		}
	case entity.StatusCompleted:
		now := s.now().UTC()
		update.CompletedAt = &now
		update.CompletedByID = &sub.UserID
		if req.CompletionReport != nil {
			report := sanitize.Text(*req.CompletionReport)
			update.CompletionReport = &report
		}
		if err := s.validateFiles(files); err != nil {
			return nil, err
		}
	default:
		files = nil
	}

	stored, err := s.storeFiles(ctx, requisition.RequestNumber, files)
	if err != nil {
		return nil, err
	}
	update.Attachments = stored

	if err := s.repo.UpdateStatus(ctx, update); err != nil {
		s.removeFiles(ctx, stored)
		if errors.Is(err, repo.ErrStaleVersion) {
			return nil, fmt.Errorf("requisition %s: %w", requisition.RequestNumber, apperror.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update requisition status: %w", err)
	}

	s.logger.Info("requisition status changed",
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("from", requisition.Status),
		zap.String("to", req.Status),
		zap.String("by", sub.UserID.String()),
		zap.Int("attachments", len(stored)),
	)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	recipients := []uuid.UUID{updated.RequestedByID}
	if req.Status == entity.StatusSDOApproved || req.Status == entity.StatusCancelled {
		for _, member := range updated.AssignedTeam {
			recipients = append(recipients, member.ID)
		}
	}
	s.notify(ctx, sub, updated, recipients, entity.NotificationRequisitionStatus,
		fmt.Sprintf("Requisition %s is now %s", updated.RequestNumber, strings.ReplaceAll(req.Status, "_", " ")))

	return dto.NewRequisitionResponse(updated), nil
}

// resourceChange describes how the requisition's vehicles and weapons move
// when it goes from its current status to status. Starting work claims them
// for the requester; leaving in_progress releases only what the requester
// still holds. Any other transition leaves the registries alone.
func resourceChange(r *entity.Requisition, status string) *repo.ResourceChange {
	change := &repo.ResourceChange{}
	for _, v := range r.AssignedVehicles {
		change.VehicleIDs = append(change.VehicleIDs, v.ID)
	}
	for _, w := range r.AssignedWeapons {
		change.WeaponIDs = append(change.WeaponIDs, w.ID)
	}
	if len(change.VehicleIDs) == 0 && len(change.WeaponIDs) == 0 {
		return nil
	}

	requester := r.RequestedByID
	switch {
	case status == entity.StatusInProgress && r.Status != entity.StatusInProgress:
		change.AssignedTo = &requester
		change.VehicleStatus = entity.VehicleStatusInUse
		change.VehicleFrom = []string{entity.VehicleStatusAvailable}
		change.WeaponStatus = entity.WeaponStatusAssigned
		change.WeaponFrom = []string{entity.WeaponStatusAvailable}
	case r.Status == entity.StatusInProgress && entity.Contains(releasingStatuses, status):
		change.Holder = &requester
		change.VehicleStatus = entity.VehicleStatusAvailable
		change.VehicleFrom = []string{entity.VehicleStatusInUse}
		change.WeaponStatus = entity.WeaponStatusAvailable
		change.WeaponFrom = []string{entity.WeaponStatusAssigned}
	default:
		return nil
	}
	return change
}

var releasingStatuses = []string{entity.StatusCompleted, entity.StatusCancelled, entity.StatusRejected}

func (s *service) validateFiles(files []commonDto.UploadedFile) error {
	if len(files) > s.opts.MaxAttachments {
		return apperror.FieldError("attachments", fmt.Sprintf("at most %d files are allowed", s.opts.MaxAttachments))
	}
	for _, f := range files {
		if !storage.AllowedContentType(f.ContentType) {
			return apperror.FieldError("attachments", fmt.Sprintf("%s: only images and PDF files are allowed", f.FileName))
		}
		if f.Size > s.opts.MaxAttachmentBytes {
			return apperror.FieldError("attachments", fmt.Sprintf("%s exceeds the %d MB limit", f.FileName, s.opts.MaxAttachmentBytes>>20))
		}
	}
	return nil
}

func (s *service) storeFiles(ctx context.Context, requestNumber string, files []commonDto.UploadedFile) ([]entity.RequisitionAttachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.files == nil {
		return nil, fmt.Errorf("%w: file uploads are not configured", apperror.ErrBadRequest)
	}

	folder := path.Join(attachmentsFolder, requestNumber)
	attachments := make([]entity.RequisitionAttachment, 0, len(files))
	for _, f := range files {
		saved, err := s.files.Save(ctx, f.Reader, folder, f.FileName)
		if err != nil {
			s.removeFiles(ctx, attachments)
			return nil, fmt.Errorf("failed to store attachment %s: %w", f.FileName, err)
		}
		attachments = append(attachments, entity.RequisitionAttachment{
			ID:          uuid.New(),
			Filename:    f.FileName,
			Path:        saved.Path,
			ContentType: f.ContentType,
			UploadedAt:  s.now().UTC(),
		})
	}
	return attachments, nil
}

func (s *service) removeFiles(ctx context.Context, attachments []entity.RequisitionAttachment) {
	if s.files == nil {
		return
	}
	for _, a := range attachments {
		if err := s.files.Delete(ctx, a.Path); err != nil {
			s.logger.Warn("failed to remove attachment", zap.String("path", a.Path), zap.Error(err))
		}
	}
}

func (s *service) Delete(ctx context.Context, sub authz.Subject, id uuid.UUID) error {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.authz.Authorize(sub, Resource, ActionDelete, requisition); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, requisition); err != nil {
		return notFound(err)
	}

	s.logger.Info("requisition deleted",
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("request_number", requisition.RequestNumber),
		zap.String("by", sub.UserID.String()),
	)

	s.removeFiles(ctx, requisition.Attachments)
	return nil
}

func (s *service) notify(ctx context.Context, actor authz.Subject, r *entity.Requisition, recipients []uuid.UUID, kind, message string) {
	if s.notifier == nil {
		return
	}

	seen := map[uuid.UUID]bool{actor.UserID: true}
	var notifications []*entity.Notification
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true
		actorID := actor.UserID
		notifications = append(notifications, &entity.Notification{
			UserID:     id,
			ActorID:    &actorID,
			EntityID:   r.ID,
			EntityType: Resource,
			EntityRef:  r.RequestNumber,
			Type:       kind,
			Message:    message,
		})
	}

	if err := s.notifier.Notify(ctx, notifications...); err != nil {
		s.logger.Warn("failed to send requisition notifications",
			zap.String("requisition_id", r.ID.String()),
			zap.Error(err),
		)
	}
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", s)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func checkExisting(ctx context.Context, counter Counter, field string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := counter.CountExisting(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	if count != int64(len(ids)) {
		return apperror.FieldError(field, "one or more ids do not exist")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("requisition %w", apperror.ErrNotFound)
	}
	return err
}

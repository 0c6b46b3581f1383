package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/config"
	"equipment-tracker/pkg/constants"
	"equipment-tracker/pkg/mailer"
	"equipment-tracker/pkg/utils"
)

const (
	subjectMaintenance = "Upcoming Equipment Maintenance Notification"
	subjectCalibration = "Upcoming Equipment Calibration Notification"
	subjectCombined    = "Upcoming Equipment Maintenance & Calibration Notification"
)

// DueGroup — набор позиций для одного получателя.
type DueGroup struct {
	Maintenance []entities.Equipment
	Calibration []entities.Equipment
}

type NotifierServiceInterface interface {
	// Run выполняет один полный обход: выборка, группировка, рассылка.
	// Ошибки отдельных отправок не прерывают обход и не возвращаются наружу.
	Run(ctx context.Context) error
}

type NotifierService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	mailer        mailer.MailerInterface
	cfg           config.NotifyConfig
	logger        *zap.Logger
}

func NewNotifierService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	mailer mailer.MailerInterface,
	cfg config.NotifyConfig,
	logger *zap.Logger,
) NotifierServiceInterface {
	return &NotifierService{
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		cacheRepo:     cacheRepo,
		mailer:        mailer,
		cfg:           cfg,
		logger:        logger,
	}
}

func (s *NotifierService) Run(ctx context.Context) error {
	today := time.Now()
	horizon := today.AddDate(0, 0, s.cfg.HorizonDays)

	mntDue, err := s.equipmentRepo.FindMaintenanceDue(ctx, horizon)
	if err != nil {
		return fmt.Errorf("выборка оборудования к ТО: %w", err)
	}
	calDue, err := s.equipmentRepo.FindCalibrationDue(ctx, horizon)
	if err != nil {
		return fmt.Errorf("выборка оборудования к поверке: %w", err)
	}

	if len(mntDue) == 0 && len(calDue) == 0 {
		s.logger.Info("оборудования с подходящим сроком нет, рассылка не требуется")
		return nil
	}

	admins, err := s.userRepo.GetAdminEmails(ctx)
	if err != nil {
		return fmt.Errorf("выборка адресов администраторов: %w", err)
	}

	groups := GroupByRecipient(mntDue, calDue, admins, s.cfg.AdminFallback)

	s.logger.Info("рассылка уведомлений о сроках обслуживания",
		zap.Int("maintenance_due", len(mntDue)),
		zap.Int("calibration_due", len(calDue)),
		zap.Int("recipients", len(groups)))

	// Стабильный порядок отправки, чтобы логи были воспроизводимы.
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		recipients := mergeRecipients(key, admins)
		if len(recipients) == 0 {
			continue
		}

		if s.suppressed(ctx, key, group) {
			s.logger.Info("уведомление подавлено (уже отправлялось недавно)",
				zap.String("recipient", key))
			continue
		}

		subject, body := ComposeMessage(group, s.cfg.HorizonDays)

		// Отказ одной отправки не прерывает обход.
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		err := s.mailer.Send(sendCtx, subject, recipients, body)
		cancel()

		if err != nil {
			s.logger.Error("не удалось отправить уведомление",
				zap.Strings("recipients", recipients),
				zap.Error(err))
			continue
		}

		s.markNotified(ctx, key, group)

		s.logger.Info("уведомление отправлено",
			zap.Strings("recipients", recipients),
			zap.String("subject", subject))
	}

	return nil
}

// suppressionKeys — ключи кеша по всем позициям группы. Вид обслуживания
// входит в ключ: уведомление о ТО не должно гасить уведомление о поверке
// того же прибора.
func (s *NotifierService) suppressionKeys(recipient string, group DueGroup) []string {
	keys := make([]string, 0, len(group.Maintenance)+len(group.Calibration))
	for _, eq := range group.Maintenance {
		keys = append(keys, fmt.Sprintf(constants.CacheKeyLastNotified, eq.ID, "maintenance", recipient))
	}
	for _, eq := range group.Calibration {
		keys = append(keys, fmt.Sprintf(constants.CacheKeyLastNotified, eq.ID, "calibration", recipient))
	}
	return keys
}

// suppressed проверяет окно подавления повторов, ничего не записывая:
// письмо уходит, если хотя бы одна позиция ещё не уведомлялась в рамках
// окна. Отметки ставит markNotified, и только после успешной отправки —
// иначе разовый сбой SMTP гасил бы уведомление на всё окно.
// При выключенном окне всегда false.
func (s *NotifierService) suppressed(ctx context.Context, recipient string, group DueGroup) bool {
	if s.cfg.SuppressFor <= 0 || s.cacheRepo == nil {
		return false
	}

	for _, key := range s.suppressionKeys(recipient, group) {
		_, err := s.cacheRepo.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, redis.Nil) {
			// Недоступный кеш не должен блокировать рассылку.
			s.logger.Warn("кеш подавления недоступен", zap.Error(err))
		}
		return false
	}
	return true
}

// markNotified помечает позиции группы как уведомлённые на срок окна.
func (s *NotifierService) markNotified(ctx context.Context, recipient string, group DueGroup) {
	if s.cfg.SuppressFor <= 0 || s.cacheRepo == nil {
		return
	}

	stamp := time.Now().Format(time.RFC3339)
	for _, key := range s.suppressionKeys(recipient, group) {
		if err := s.cacheRepo.Set(ctx, key, stamp, s.cfg.SuppressFor); err != nil {
			s.logger.Warn("не удалось записать отметку об уведомлении",
				zap.String("key", key), zap.Error(err))
		}
	}
}

// GroupByRecipient раскладывает позиции по ответственным за подразделения.
// Ключ — email ответственного; позиции подразделений без ответственного
// либо молча пропускаются, либо (adminFallback) собираются под пустым ключом
// и уходят только администраторам.
func GroupByRecipient(mntDue, calDue []entities.Equipment, admins []string, adminFallback bool) map[string]DueGroup {
	groups := make(map[string]DueGroup)
	seen := make(map[string]map[uint64]bool)

	add := func(eq entities.Equipment, calibration bool) {
		key := ""
		if email := eq.HeadEmail(); email != nil && *email != "" {
			key = *email
		} else if !adminFallback {
			return
		}
		if key == "" && len(admins) == 0 {
			return
		}

		listKey := key + "|mnt"
		if calibration {
			listKey = key + "|cal"
		}
		if seen[listKey] == nil {
			seen[listKey] = make(map[uint64]bool)
		}
		if seen[listKey][eq.ID] {
			return
		}
		seen[listKey][eq.ID] = true

		group := groups[key]
		if calibration {
			group.Calibration = append(group.Calibration, eq)
		} else {
			group.Maintenance = append(group.Maintenance, eq)
		}
		groups[key] = group
	}

	for _, eq := range mntDue {
		add(eq, false)
	}
	for _, eq := range calDue {
		add(eq, true)
	}

	return groups
}

// mergeRecipients объединяет адрес ответственного с адресами администраторов
// без дублей. Пустой ключ означает рассылку только администраторам.
func mergeRecipients(key string, admins []string) []string {
	recipients := make([]string, 0, len(admins)+1)
	present := make(map[string]bool)

	if key != "" {
		recipients = append(recipients, key)
		present[key] = true
	}
	for _, admin := range admins {
		if admin == "" || present[admin] {
			continue
		}
		recipients = append(recipients, admin)
		present[admin] = true
	}
	return recipients
}

// ComposeMessage собирает тему и текст одного письма.
// Тема отражает состав: только ТО, только поверка или обе категории.
func ComposeMessage(group DueGroup, horizonDays int) (string, string) {
	var subject string
	switch {
	case len(group.Maintenance) > 0 && len(group.Calibration) > 0:
		subject = subjectCombined
	case len(group.Calibration) > 0:
		subject = subjectCalibration
	default:
		subject = subjectMaintenance
	}

	var b strings.Builder
	if len(group.Maintenance) > 0 {
		fmt.Fprintf(&b, "The following equipment are due for maintenance within the next %d days:\n\n", horizonDays)
		b.WriteString(formatDueList(group.Maintenance, "Next Maintenance", func(eq entities.Equipment) *time.Time {
			return eq.NextMaintenanceDate
		}))
		b.WriteString(" \n\nPlease take the necessary actions.")
	}
	if len(group.Calibration) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "The following equipment are due for calibration within the next %d days:\n\n", horizonDays)
		b.WriteString(formatDueList(group.Calibration, "Next Calibration", func(eq entities.Equipment) *time.Time {
			return eq.NextCalibrationDate
		}))
		b.WriteString(" \n\nPlease take the necessary actions.")
	}

	return subject, b.String()
}

func formatDueList(items []entities.Equipment, label string, due func(entities.Equipment) *time.Time) string {
	lines := make([]string, 0, len(items))
	for _, eq := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s: %s)", eq.Name, label, utils.FormatDatePtr(due(eq))))
	}
	return strings.Join(lines, "\n")
}

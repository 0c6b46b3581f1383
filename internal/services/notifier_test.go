package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/config"
	"equipment-tracker/pkg/types"
)

// ----- Фейки для изоляции от БД и SMTP -----

type fakeEquipmentRepo struct {
	maintenanceDue []entities.Equipment
	calibrationDue []entities.Equipment
	err            error
}

func (f *fakeEquipmentRepo) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	return nil, 0, nil
}
func (f *fakeEquipmentRepo) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return nil, nil
}
func (f *fakeEquipmentRepo) CreateEquipment(ctx context.Context, q repositories.Querier, equipment entities.Equipment) (uint64, error) {
	return 0, nil
}
func (f *fakeEquipmentRepo) UpdateEquipment(ctx context.Context, q repositories.Querier, id uint64, equipment entities.Equipment) error {
	return nil
}
func (f *fakeEquipmentRepo) DeleteEquipment(ctx context.Context, id uint64) error { return nil }
func (f *fakeEquipmentRepo) ReplaceParameters(ctx context.Context, q repositories.Querier, equipmentID uint64, params []entities.EquipmentParameter) error {
	return nil
}
func (f *fakeEquipmentRepo) GetParameters(ctx context.Context, equipmentID uint64) ([]entities.EquipmentParameter, error) {
	return nil, nil
}
func (f *fakeEquipmentRepo) IsIDNumberTaken(ctx context.Context, idNumber string, excludeID uint64) (bool, error) {
	return false, nil
}
func (f *fakeEquipmentRepo) FindMaintenanceDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error) {
	return f.maintenanceDue, f.err
}
func (f *fakeEquipmentRepo) FindCalibrationDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error) {
	return f.calibrationDue, f.err
}

type fakeUserRepo struct {
	adminEmails []string
	users       map[uint64]*entities.User
	roleUpdates map[uint64]string
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	return nil, 0, nil
}
func (f *fakeUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("не найден")
}
func (f *fakeUserRepo) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) CreateUser(ctx context.Context, user entities.User) (uint64, error) {
	return 0, nil
}
func (f *fakeUserRepo) UpdateUserRole(ctx context.Context, id uint64, role string) error {
	if f.roleUpdates == nil {
		f.roleUpdates = make(map[uint64]string)
	}
	f.roleUpdates[id] = role
	return nil
}
func (f *fakeUserRepo) DeleteUser(ctx context.Context, id uint64) error { return nil }
func (f *fakeUserRepo) CountUsers(ctx context.Context) (uint64, error)  { return 0, nil }
func (f *fakeUserRepo) GetAdminEmails(ctx context.Context) ([]string, error) {
	return f.adminEmails, nil
}

type sentMail struct {
	subject    string
	recipients []string
	body       string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool // ключ — первый получатель
}

func (f *fakeMailer) Send(ctx context.Context, subject string, recipients []string, body string) error {
	if len(recipients) > 0 && f.failFor[recipients[0]] {
		return errors.New("smtp: соединение разорвано")
	}
	f.sent = append(f.sent, sentMail{subject: subject, recipients: recipients, body: body})
	return nil
}

// ----- Вспомогательные конструкторы -----

func equipmentWithHead(id uint64, name string, headEmail string, nextMnt, nextCal *time.Time) entities.Equipment {
	eq := entities.Equipment{
		ID:                  id,
		Name:                name,
		NextMaintenanceDate: nextMnt,
		NextCalibrationDate: nextCal,
		Unit:                &entities.Unit{ID: 1, Name: "Лаборатория"},
	}
	if headEmail != "" {
		eq.Unit.HeadEmail = &headEmail
	}
	return eq
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func notifyConfig() config.NotifyConfig {
	return config.NotifyConfig{
		Interval:    time.Hour,
		HorizonDays: 30,
		SendTimeout: 5 * time.Second,
	}
}

// ----- Тесты группировки -----

func TestGroupByRecipient_SharedHeadSingleEntry(t *testing.T) {
	due := datePtr(2025, 6, 1)
	// Два прибора в разных подразделениях, но с одним ответственным.
	eq1 := equipmentWithHead(1, "Осциллограф", "head@x.com", due, nil)
	eq2 := equipmentWithHead(2, "Вольтметр", "head@x.com", due, nil)
	eq2.Unit.ID = 2

	groups := GroupByRecipient([]entities.Equipment{eq1, eq2}, nil, nil, false)

	require.Len(t, groups, 1, "один ответственный - одна запись")
	assert.Len(t, groups["head@x.com"].Maintenance, 2)
	assert.Empty(t, groups["head@x.com"].Calibration)
}

func TestGroupByRecipient_HeadlessUnitSkipped(t *testing.T) {
	due := datePtr(2025, 6, 1)
	eq := equipmentWithHead(1, "Термометр", "", due, nil)

	groups := GroupByRecipient([]entities.Equipment{eq}, nil, []string{"admin@x.com"}, false)
	assert.Empty(t, groups, "без ответственного и без fallback уведомление не формируется")
}

func TestGroupByRecipient_HeadlessUnitAdminFallback(t *testing.T) {
	due := datePtr(2025, 6, 1)
	eq := equipmentWithHead(1, "Термометр", "", due, nil)

	groups := GroupByRecipient([]entities.Equipment{eq}, nil, []string{"admin@x.com"}, true)

	require.Contains(t, groups, "")
	assert.Len(t, groups[""].Maintenance, 1)

	recipients := mergeRecipients("", []string{"admin@x.com"})
	assert.Equal(t, []string{"admin@x.com"}, recipients)
}

func TestGroupByRecipient_NoDuplicateItems(t *testing.T) {
	due := datePtr(2025, 6, 1)
	eq := equipmentWithHead(1, "Осциллограф", "head@x.com", due, due)

	// Один и тот же прибор дважды в одной выборке.
	groups := GroupByRecipient(
		[]entities.Equipment{eq, eq},
		[]entities.Equipment{eq},
		nil, false,
	)

	require.Len(t, groups, 1)
	assert.Len(t, groups["head@x.com"].Maintenance, 1, "дубль в списке ТО должен схлопнуться")
	assert.Len(t, groups["head@x.com"].Calibration, 1)
}

func TestMergeRecipients_AdminAlwaysIncluded(t *testing.T) {
	recipients := mergeRecipients("head@x.com", []string{"admin@x.com", "head@x.com"})
	assert.Equal(t, []string{"head@x.com", "admin@x.com"}, recipients,
		"ответственный-администратор не должен дублироваться")
}

// ----- Тесты состава письма -----

func TestComposeMessage_SubjectReflectsContents(t *testing.T) {
	due := datePtr(2025, 6, 1)
	eq := equipmentWithHead(1, "Осциллограф", "head@x.com", due, due)

	subject, _ := ComposeMessage(DueGroup{Maintenance: []entities.Equipment{eq}}, 30)
	assert.Equal(t, "Upcoming Equipment Maintenance Notification", subject)

	subject, _ = ComposeMessage(DueGroup{Calibration: []entities.Equipment{eq}}, 30)
	assert.Equal(t, "Upcoming Equipment Calibration Notification", subject)

	subject, _ = ComposeMessage(DueGroup{
		Maintenance: []entities.Equipment{eq},
		Calibration: []entities.Equipment{eq},
	}, 30)
	assert.Equal(t, "Upcoming Equipment Maintenance & Calibration Notification", subject)
}

func TestComposeMessage_BodyFormat(t *testing.T) {
	due := datePtr(2025, 6, 15)
	eq := equipmentWithHead(1, "Осциллограф", "head@x.com", due, nil)

	_, body := ComposeMessage(DueGroup{Maintenance: []entities.Equipment{eq}}, 30)

	assert.Contains(t, body, "The following equipment are due for maintenance within the next 30 days:")
	assert.Contains(t, body, "- Осциллограф (Next Maintenance: 2025-06-15)")
	assert.Contains(t, body, "Please take the necessary actions.")

	// Текст следует за настроенным горизонтом, а не фиксированными 30 днями.
	_, body = ComposeMessage(DueGroup{Calibration: []entities.Equipment{eq}}, 45)
	assert.Contains(t, body, "due for calibration within the next 45 days:")
}

// ----- Сквозной тест обхода -----

func TestNotifierRun_EndToEnd(t *testing.T) {
	// Прибор просрочен на 5 дней, ответственный a@x.com, админ b@x.com.
	overdue := time.Now().AddDate(0, 0, -5)
	eq := equipmentWithHead(1, "Генератор сигналов", "a@x.com", &overdue, nil)

	mail := &fakeMailer{}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq}},
		&fakeUserRepo{adminEmails: []string{"b@x.com"}},
		nil,
		mail,
		notifyConfig(),
		zap.NewNop(),
	)

	require.NoError(t, notifier.Run(context.Background()))

	require.Len(t, mail.sent, 1, "ровно одно письмо")
	msg := mail.sent[0]
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, msg.recipients)
	assert.Equal(t, "Upcoming Equipment Maintenance Notification", msg.subject)
	assert.Contains(t, msg.body, "Генератор сигналов")
	assert.Contains(t, msg.body, overdue.Format("2006-01-02"))
}

func TestNotifierRun_RepeatedRunsSendAgain(t *testing.T) {
	overdue := time.Now().AddDate(0, 0, -1)
	eq := equipmentWithHead(1, "Генератор", "a@x.com", &overdue, nil)

	mail := &fakeMailer{}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq}},
		&fakeUserRepo{},
		nil,
		mail,
		notifyConfig(),
		zap.NewNop(),
	)

	require.NoError(t, notifier.Run(context.Background()))
	require.NoError(t, notifier.Run(context.Background()))

	assert.Len(t, mail.sent, 2, "без окна подавления каждый обход шлёт заново")
}

func TestNotifierRun_SendFailureIsolated(t *testing.T) {
	due := time.Now().AddDate(0, 0, 3)
	eq1 := equipmentWithHead(1, "Прибор А", "a@x.com", &due, nil)
	eq2 := equipmentWithHead(2, "Прибор Б", "c@x.com", &due, nil)

	mail := &fakeMailer{failFor: map[string]bool{"a@x.com": true}}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq1, eq2}},
		&fakeUserRepo{},
		nil,
		mail,
		notifyConfig(),
		zap.NewNop(),
	)

	require.NoError(t, notifier.Run(context.Background()),
		"отказ одной отправки не должен прерывать обход")

	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"c@x.com"}, mail.sent[0].recipients)
}

func TestNotifierRun_NothingDueNoMail(t *testing.T) {
	mail := &fakeMailer{}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{},
		&fakeUserRepo{adminEmails: []string{"b@x.com"}},
		nil,
		mail,
		notifyConfig(),
		zap.NewNop(),
	)

	require.NoError(t, notifier.Run(context.Background()))
	assert.Empty(t, mail.sent)
}

type fakeCacheRepo struct {
	keys map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{keys: make(map[string]string)}
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.keys[key] = fmt.Sprint(value)
	return nil
}
func (f *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	if v, ok := f.keys[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}
func (f *fakeCacheRepo) Del(ctx context.Context, key ...string) error {
	for _, k := range key {
		delete(f.keys, k)
	}
	return nil
}

func TestNotifierRun_SuppressionWindowSkipsRepeat(t *testing.T) {
	overdue := time.Now().AddDate(0, 0, -1)
	eq := equipmentWithHead(1, "Генератор", "a@x.com", &overdue, nil)

	cfg := notifyConfig()
	cfg.SuppressFor = time.Hour

	mail := &fakeMailer{}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq}},
		&fakeUserRepo{},
		newFakeCacheRepo(),
		mail,
		cfg,
		zap.NewNop(),
	)

	require.NoError(t, notifier.Run(context.Background()))
	require.NoError(t, notifier.Run(context.Background()))

	assert.Len(t, mail.sent, 1, "в рамках окна подавления повторное письмо не уходит")
}

func TestNotifierRun_SendFailureDoesNotSuppressRetry(t *testing.T) {
	overdue := time.Now().AddDate(0, 0, -1)
	eq := equipmentWithHead(1, "Генератор", "a@x.com", &overdue, nil)

	cfg := notifyConfig()
	cfg.SuppressFor = time.Hour

	mail := &fakeMailer{failFor: map[string]bool{"a@x.com": true}}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq}},
		&fakeUserRepo{},
		newFakeCacheRepo(),
		mail,
		cfg,
		zap.NewNop(),
	)

	// Первый обход: SMTP недоступен, письмо не уходит.
	require.NoError(t, notifier.Run(context.Background()))
	require.Empty(t, mail.sent)

	// Почта восстановилась — следующий обход внутри окна должен отправить,
	// неудачная попытка не считается уведомлением.
	delete(mail.failFor, "a@x.com")
	require.NoError(t, notifier.Run(context.Background()))

	require.Len(t, mail.sent, 1, "после сбоя отправки повтор не должен подавляться")
	assert.Equal(t, []string{"a@x.com"}, mail.sent[0].recipients)
}

func TestNotifierRun_MaintenanceMarkDoesNotSuppressCalibration(t *testing.T) {
	overdue := time.Now().AddDate(0, 0, -1)
	eq := equipmentWithHead(1, "Генератор", "a@x.com", &overdue, nil)

	cfg := notifyConfig()
	cfg.SuppressFor = time.Hour

	repo := &fakeEquipmentRepo{maintenanceDue: []entities.Equipment{eq}}
	mail := &fakeMailer{}
	notifier := NewNotifierService(repo, &fakeUserRepo{}, newFakeCacheRepo(), mail, cfg, zap.NewNop())

	require.NoError(t, notifier.Run(context.Background()))
	require.Len(t, mail.sent, 1)

	// У того же прибора подошёл срок поверки: отметка о ТО не должна
	// гасить новое уведомление.
	eqCal := eq
	eqCal.NextCalibrationDate = &overdue
	repo.calibrationDue = []entities.Equipment{eqCal}

	require.NoError(t, notifier.Run(context.Background()))

	require.Len(t, mail.sent, 2)
	assert.Contains(t, mail.sent[1].body, "due for calibration")
}

func TestNotifierRun_QueryFailureAbortsRun(t *testing.T) {
	mail := &fakeMailer{}
	notifier := NewNotifierService(
		&fakeEquipmentRepo{err: errors.New("connection refused")},
		&fakeUserRepo{},
		nil,
		mail,
		notifyConfig(),
		zap.NewNop(),
	)

	err := notifier.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
	assert.Empty(t, mail.sent)
}

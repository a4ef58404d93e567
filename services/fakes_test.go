package services

import (
	"context"
	"io"
	"time"

	"github.com/mpomar16/cancha-system/models"
	"github.com/mpomar16/cancha-system/repositories"
	"github.com/mpomar16/cancha-system/storage"
)

// Фейки держат состояние в памяти и повторяют контракт постгресных
// репозиториев (включая сентинельные ошибки), чтобы сервисы можно было
// гонять без живой БД.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeReservationRepo struct {
	nextID int
	items  map[int]*models.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{items: make(map[int]*models.Reservation)}
}

func (r *fakeReservationRepo) put(res *models.Reservation) *models.Reservation {
	if res.ID == 0 {
		r.nextID++
		res.ID = r.nextID
	} else if res.ID > r.nextID {
		r.nextID = res.ID
	}
	cp := *res
	r.items[res.ID] = &cp
	return res
}

func (r *fakeReservationRepo) Create(_ context.Context, _ repositories.SQLExecutor, res *models.Reservation) error {
	r.nextID++
	res.ID = r.nextID
	res.CreatedAt = time.Now()
	cp := *res
	r.items[res.ID] = &cp
	return nil
}

func (r *fakeReservationRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Reservation, error) {
	res, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *fakeReservationRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Reservation, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeReservationRepo) Update(_ context.Context, _ repositories.SQLExecutor, res *models.Reservation) error {
	if _, ok := r.items[res.ID]; !ok {
		return repositories.ErrReservationNotFound
	}
	cp := *res
	r.items[res.ID] = &cp
	return nil
}

func (r *fakeReservationRepo) UpdateBalanceState(_ context.Context, _ repositories.SQLExecutor, id int, saldo int64, estado models.ReservationState) error {
	res, ok := r.items[id]
	if !ok {
		return repositories.ErrReservationNotFound
	}
	res.SaldoPendiente = saldo
	res.Estado = estado
	return nil
}

func (r *fakeReservationRepo) UpdateState(_ context.Context, _ repositories.SQLExecutor, id int, estado models.ReservationState) error {
	res, ok := r.items[id]
	if !ok {
		return repositories.ErrReservationNotFound
	}
	res.Estado = estado
	return nil
}

func (r *fakeReservationRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.items[id]; !ok {
		return repositories.ErrReservationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeReservationRepo) ListByCliente(_ context.Context, clienteID int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range r.items {
		if res.ClienteID == clienteID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListByCancha(_ context.Context, canchaID int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range r.items {
		if res.CanchaID == canchaID {
			out = append(out, *res)
		}
	}
	return out, nil
}

type participationKey struct {
	deportistaID int
	reservaID    int
}

type fakeParticipationRepo struct {
	items map[participationKey]*models.Participation
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{items: make(map[participationKey]*models.Participation)}
}

func (r *fakeParticipationRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participation) error {
	key := participationKey{p.DeportistaID, p.ReservaID}
	if _, ok := r.items[key]; ok {
		return repositories.ErrParticipationConflict
	}
	cp := *p
	r.items[key] = &cp
	return nil
}

func (r *fakeParticipationRepo) GetByPair(_ context.Context, _ repositories.SQLExecutor, deportistaID, reservaID int) (*models.Participation, error) {
	p, ok := r.items[participationKey{deportistaID, reservaID}]
	if !ok {
		return nil, repositories.ErrParticipationNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeParticipationRepo) CountConfirmed(_ context.Context, _ repositories.SQLExecutor, reservaID int, excludeDeportistaID *int) (int, error) {
	count := 0
	for key, p := range r.items {
		if key.reservaID != reservaID || p.Estado != models.ParticipationConfirmado {
			continue
		}
		if excludeDeportistaID != nil && key.deportistaID == *excludeDeportistaID {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeParticipationRepo) UpdateState(_ context.Context, _ repositories.SQLExecutor, deportistaID, reservaID int, estado models.ParticipationState) error {
	p, ok := r.items[participationKey{deportistaID, reservaID}]
	if !ok {
		return repositories.ErrParticipationNotFound
	}
	p.Estado = estado
	return nil
}

func (r *fakeParticipationRepo) Delete(_ context.Context, deportistaID, reservaID int) error {
	key := participationKey{deportistaID, reservaID}
	if _, ok := r.items[key]; !ok {
		return repositories.ErrParticipationNotFound
	}
	delete(r.items, key)
	return nil
}

func (r *fakeParticipationRepo) ListByReserva(_ context.Context, reservaID int) ([]*models.Participation, error) {
	var out []*models.Participation
	for key, p := range r.items {
		if key.reservaID == reservaID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	nextID int
	items  map[int]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{items: make(map[int]*models.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Payment) error {
	for _, other := range r.items {
		if other.Recibo == p.Recibo {
			return repositories.ErrPaymentReciboConflict
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Payment, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.Payment) error {
	if _, ok := r.items[p.ID]; !ok {
		return repositories.ErrPaymentNotFound
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) HasSuccessfulByReserva(_ context.Context, _ repositories.SQLExecutor, reservaID int) (bool, error) {
	for _, p := range r.items {
		if p.ReservaID == reservaID && p.Estado == models.PaymentExitoso {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) ListByReserva(_ context.Context, reservaID int) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range r.items {
		if p.ReservaID == reservaID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	nextID int
	items  map[int]*models.CheckInToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{items: make(map[int]*models.CheckInToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.CheckInToken) error {
	for _, other := range r.items {
		if other.ReservaID == t.ReservaID {
			return repositories.ErrTokenReservaConflict
		}
		if other.Codigo == t.Codigo {
			return repositories.ErrTokenCodigoConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *fakeTokenRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.CheckInToken, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) GetByReserva(_ context.Context, _ repositories.SQLExecutor, reservaID int) (*models.CheckInToken, error) {
	for _, t := range r.items {
		if t.ReservaID == reservaID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTokenNotFound
}

func (r *fakeTokenRepo) GetByCodigo(_ context.Context, codigo string) (*models.CheckInToken, error) {
	for _, t := range r.items {
		if t.Codigo == codigo {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTokenNotFound
}

func (r *fakeTokenRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.CheckInToken) error {
	if _, ok := r.items[t.ID]; !ok {
		return repositories.ErrTokenNotFound
	}
	for _, other := range r.items {
		if other.ID != t.ID && other.ReservaID == t.ReservaID {
			return repositories.ErrTokenReservaConflict
		}
	}
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *fakeTokenRepo) UpdateState(_ context.Context, _ repositories.SQLExecutor, id int, estado models.TokenState) error {
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTokenNotFound
	}
	t.Estado = estado
	return nil
}

func (r *fakeTokenRepo) UpdateImageKey(_ context.Context, id int, imageKey *string) error {
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTokenNotFound
	}
	t.ImageKey = imageKey
	return nil
}

func (r *fakeTokenRepo) MarkUsed(_ context.Context, id int, encargadoID *int, now time.Time) error {
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTokenNotFound
	}
	if t.Estado != models.TokenActivo || !now.Before(t.ExpiraEn) {
		return repositories.ErrTokenNotRedeemable
	}
	t.Estado = models.TokenUsado
	if encargadoID != nil {
		t.EncargadoID = encargadoID
	}
	return nil
}

func (r *fakeTokenRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	var swept int64
	for _, t := range r.items {
		if t.Estado == models.TokenActivo && !now.Before(t.ExpiraEn) {
			t.Estado = models.TokenExpirado
			swept++
		}
	}
	return swept, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.items[id]; !ok {
		return repositories.ErrTokenNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeIncidentRepo struct {
	nextID int
	items  map[int]*models.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{items: make(map[int]*models.Incident)}
}

func (r *fakeIncidentRepo) Create(_ context.Context, i *models.Incident) error {
	r.nextID++
	i.ID = r.nextID
	i.CreatedAt = time.Now()
	cp := *i
	r.items[i.ID] = &cp
	return nil
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, id int) (*models.Incident, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrIncidentNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, i *models.Incident) error {
	if _, ok := r.items[i.ID]; !ok {
		return repositories.ErrIncidentNotFound
	}
	cp := *i
	r.items[i.ID] = &cp
	return nil
}

func (r *fakeIncidentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.items[id]; !ok {
		return repositories.ErrIncidentNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeIncidentRepo) ListByReserva(_ context.Context, reservaID int) ([]*models.Incident, error) {
	var out []*models.Incident
	for _, i := range r.items {
		if i.ReservaID == reservaID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeCatalogRepo struct {
	clientes    map[int]*models.Cliente
	canchas     map[int]*models.Cancha
	disciplinas map[int]*models.Disciplina
	deportistas map[int]*models.Deportista
	encargados  map[int]*models.Encargado
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		clientes:    make(map[int]*models.Cliente),
		canchas:     make(map[int]*models.Cancha),
		disciplinas: make(map[int]*models.Disciplina),
		deportistas: make(map[int]*models.Deportista),
		encargados:  make(map[int]*models.Encargado),
	}
}

func (r *fakeCatalogRepo) ClienteExists(_ context.Context, id int) (bool, error) {
	_, ok := r.clientes[id]
	return ok, nil
}

func (r *fakeCatalogRepo) DisciplinaExists(_ context.Context, id int) (bool, error) {
	_, ok := r.disciplinas[id]
	return ok, nil
}

func (r *fakeCatalogRepo) DeportistaExists(_ context.Context, id int) (bool, error) {
	_, ok := r.deportistas[id]
	return ok, nil
}

func (r *fakeCatalogRepo) EncargadoExists(_ context.Context, id int) (bool, error) {
	_, ok := r.encargados[id]
	return ok, nil
}

func (r *fakeCatalogRepo) GetClienteByID(_ context.Context, id int) (*models.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, repositories.ErrClienteNotFound
	}
	return c, nil
}

func (r *fakeCatalogRepo) GetCanchaByID(_ context.Context, id int) (*models.Cancha, error) {
	c, ok := r.canchas[id]
	if !ok {
		return nil, repositories.ErrCanchaNotFound
	}
	return c, nil
}

func (r *fakeCatalogRepo) GetDisciplinaByID(_ context.Context, id int) (*models.Disciplina, error) {
	d, ok := r.disciplinas[id]
	if !ok {
		return nil, repositories.ErrDisciplinaNotFound
	}
	return d, nil
}

func (r *fakeCatalogRepo) GetDeportistaByID(_ context.Context, id int) (*models.Deportista, error) {
	d, ok := r.deportistas[id]
	if !ok {
		return nil, repositories.ErrDeportistaNotFound
	}
	return d, nil
}

func (r *fakeCatalogRepo) GetEncargadoByID(_ context.Context, id int) (*models.Encargado, error) {
	e, ok := r.encargados[id]
	if !ok {
		return nil, repositories.ErrEncargadoNotFound
	}
	return e, nil
}

type fakeUserRepo struct {
	nextID int
	items  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	for _, other := range r.items {
		if other.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeUploader struct {
	uploaded map[string]bool
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]bool)}
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	u.uploaded[key] = true
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type broadcastCall struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.calls = append(b.calls, broadcastCall{room: roomID, message: message})
}

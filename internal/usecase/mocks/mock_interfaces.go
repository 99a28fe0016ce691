//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/iho/cashledger/internal/domain"
	usecase "github.com/iho/cashledger/internal/usecase"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockBalanceRepository is a mock of BalanceRepository interface.
type MockBalanceRepository struct {
	ctrl     *gomock.Controller
	recorder *MockBalanceRepositoryMockRecorder
	isgomock struct{}
}

// MockBalanceRepositoryMockRecorder is the mock recorder for MockBalanceRepository.
type MockBalanceRepositoryMockRecorder struct {
	mock *MockBalanceRepository
}

// NewMockBalanceRepository creates a new mock instance.
func NewMockBalanceRepository(ctrl *gomock.Controller) *MockBalanceRepository {
	mock := &MockBalanceRepository{ctrl: ctrl}
	mock.recorder = &MockBalanceRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBalanceRepository) EXPECT() *MockBalanceRepositoryMockRecorder {
	return m.recorder
}

// Get mocks base method.
func (m *MockBalanceRepository) Get(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, d)
	ret0, _ := ret[0].(*domain.BalanceRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockBalanceRepositoryMockRecorder) Get(ctx, d any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockBalanceRepository)(nil).Get), ctx, d)
}

// GetForUpdate mocks base method.
func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetForUpdate", ctx, tx, d)
	ret0, _ := ret[0].(*domain.BalanceRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetForUpdate indicates an expected call of GetForUpdate.
func (mr *MockBalanceRepositoryMockRecorder) GetForUpdate(ctx, tx, d any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetForUpdate", reflect.TypeOf((*MockBalanceRepository)(nil).GetForUpdate), ctx, tx, d)
}

// Create mocks base method.
func (m *MockBalanceRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, record)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockBalanceRepositoryMockRecorder) Create(ctx, tx, record any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockBalanceRepository)(nil).Create), ctx, tx, record)
}

// Update mocks base method.
func (m *MockBalanceRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, record)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockBalanceRepositoryMockRecorder) Update(ctx, tx, record any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockBalanceRepository)(nil).Update), ctx, tx, record)
}

// List mocks base method.
func (m *MockBalanceRepository) List(ctx context.Context) ([]*domain.BalanceRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx)
	ret0, _ := ret[0].([]*domain.BalanceRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockBalanceRepositoryMockRecorder) List(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockBalanceRepository)(nil).List), ctx)
}

// MockCashBookRepository is a mock of CashBookRepository interface.
type MockCashBookRepository struct {
	ctrl     *gomock.Controller
	recorder *MockCashBookRepositoryMockRecorder
	isgomock struct{}
}

// MockCashBookRepositoryMockRecorder is the mock recorder for MockCashBookRepository.
type MockCashBookRepositoryMockRecorder struct {
	mock *MockCashBookRepository
}

// NewMockCashBookRepository creates a new mock instance.
func NewMockCashBookRepository(ctrl *gomock.Controller) *MockCashBookRepository {
	mock := &MockCashBookRepository{ctrl: ctrl}
	mock.recorder = &MockCashBookRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCashBookRepository) EXPECT() *MockCashBookRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockCashBookRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockCashBookRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockCashBookRepository)(nil).Create), ctx, tx, entry)
}

// GetByID mocks base method.
func (m *MockCashBookRepository) GetByID(ctx context.Context, id string) (*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockCashBookRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockCashBookRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockCashBookRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockCashBookRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockCashBookRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// GetLatest mocks base method.
func (m *MockCashBookRepository) GetLatest(ctx context.Context, tx usecase.Transaction) (*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetLatest", ctx, tx)
	ret0, _ := ret[0].(*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetLatest indicates an expected call of GetLatest.
func (mr *MockCashBookRepositoryMockRecorder) GetLatest(ctx, tx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetLatest", reflect.TypeOf((*MockCashBookRepository)(nil).GetLatest), ctx, tx)
}

// GetLatestAsOf mocks base method.
func (m *MockCashBookRepository) GetLatestAsOf(ctx context.Context, at time.Time) (*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetLatestAsOf", ctx, at)
	ret0, _ := ret[0].(*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetLatestAsOf indicates an expected call of GetLatestAsOf.
func (mr *MockCashBookRepositoryMockRecorder) GetLatestAsOf(ctx, at any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetLatestAsOf", reflect.TypeOf((*MockCashBookRepository)(nil).GetLatestAsOf), ctx, at)
}

// Update mocks base method.
func (m *MockCashBookRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockCashBookRepositoryMockRecorder) Update(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockCashBookRepository)(nil).Update), ctx, tx, entry)
}

// Delete mocks base method.
func (m *MockCashBookRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockCashBookRepositoryMockRecorder) Delete(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockCashBookRepository)(nil).Delete), ctx, tx, id)
}

// ListByPeriod mocks base method.
func (m *MockCashBookRepository) ListByPeriod(ctx context.Context, from time.Time, to time.Time) ([]*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByPeriod", ctx, from, to)
	ret0, _ := ret[0].([]*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByPeriod indicates an expected call of ListByPeriod.
func (mr *MockCashBookRepositoryMockRecorder) ListByPeriod(ctx, from, to any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByPeriod", reflect.TypeOf((*MockCashBookRepository)(nil).ListByPeriod), ctx, from, to)
}

// ListAll mocks base method.
func (m *MockCashBookRepository) ListAll(ctx context.Context) ([]*domain.CashBookEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListAll", ctx)
	ret0, _ := ret[0].([]*domain.CashBookEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListAll indicates an expected call of ListAll.
func (mr *MockCashBookRepositoryMockRecorder) ListAll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListAll", reflect.TypeOf((*MockCashBookRepository)(nil).ListAll), ctx)
}

// MockLedgerRepository is a mock of LedgerRepository interface.
type MockLedgerRepository struct {
	ctrl     *gomock.Controller
	recorder *MockLedgerRepositoryMockRecorder
	isgomock struct{}
}

// MockLedgerRepositoryMockRecorder is the mock recorder for MockLedgerRepository.
type MockLedgerRepositoryMockRecorder struct {
	mock *MockLedgerRepository
}

// NewMockLedgerRepository creates a new mock instance.
func NewMockLedgerRepository(ctrl *gomock.Controller) *MockLedgerRepository {
	mock := &MockLedgerRepository{ctrl: ctrl}
	mock.recorder = &MockLedgerRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLedgerRepository) EXPECT() *MockLedgerRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockLedgerRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockLedgerRepository)(nil).Create), ctx, tx, entry)
}

// GetByTransactionIDForUpdate mocks base method.
func (m *MockLedgerRepository) GetByTransactionIDForUpdate(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.LedgerEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByTransactionIDForUpdate", ctx, tx, transactionID)
	ret0, _ := ret[0].(*domain.LedgerEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByTransactionIDForUpdate indicates an expected call of GetByTransactionIDForUpdate.
func (mr *MockLedgerRepositoryMockRecorder) GetByTransactionIDForUpdate(ctx, tx, transactionID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByTransactionIDForUpdate", reflect.TypeOf((*MockLedgerRepository)(nil).GetByTransactionIDForUpdate), ctx, tx, transactionID)
}

// Update mocks base method.
func (m *MockLedgerRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockLedgerRepositoryMockRecorder) Update(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockLedgerRepository)(nil).Update), ctx, tx, entry)
}

// Delete mocks base method.
func (m *MockLedgerRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockLedgerRepositoryMockRecorder) Delete(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockLedgerRepository)(nil).Delete), ctx, tx, id)
}

// ListByPeriod mocks base method.
func (m *MockLedgerRepository) ListByPeriod(ctx context.Context, from time.Time, to time.Time) ([]*domain.LedgerEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByPeriod", ctx, from, to)
	ret0, _ := ret[0].([]*domain.LedgerEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByPeriod indicates an expected call of ListByPeriod.
func (mr *MockLedgerRepositoryMockRecorder) ListByPeriod(ctx, from, to any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByPeriod", reflect.TypeOf((*MockLedgerRepository)(nil).ListByPeriod), ctx, from, to)
}

// ListAll mocks base method.
func (m *MockLedgerRepository) ListAll(ctx context.Context) ([]*domain.LedgerEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListAll", ctx)
	ret0, _ := ret[0].([]*domain.LedgerEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListAll indicates an expected call of ListAll.
func (mr *MockLedgerRepositoryMockRecorder) ListAll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListAll", reflect.TypeOf((*MockLedgerRepository)(nil).ListAll), ctx)
}

// MockPettyCashRepository is a mock of PettyCashRepository interface.
type MockPettyCashRepository struct {
	ctrl     *gomock.Controller
	recorder *MockPettyCashRepositoryMockRecorder
	isgomock struct{}
}

// MockPettyCashRepositoryMockRecorder is the mock recorder for MockPettyCashRepository.
type MockPettyCashRepositoryMockRecorder struct {
	mock *MockPettyCashRepository
}

// NewMockPettyCashRepository creates a new mock instance.
func NewMockPettyCashRepository(ctrl *gomock.Controller) *MockPettyCashRepository {
	mock := &MockPettyCashRepository{ctrl: ctrl}
	mock.recorder = &MockPettyCashRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPettyCashRepository) EXPECT() *MockPettyCashRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockPettyCashRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockPettyCashRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockPettyCashRepository)(nil).Create), ctx, tx, entry)
}

// GetByID mocks base method.
func (m *MockPettyCashRepository) GetByID(ctx context.Context, id string) (*domain.PettyCashEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.PettyCashEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockPettyCashRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockPettyCashRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockPettyCashRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PettyCashEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.PettyCashEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockPettyCashRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockPettyCashRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// Update mocks base method.
func (m *MockPettyCashRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockPettyCashRepositoryMockRecorder) Update(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockPettyCashRepository)(nil).Update), ctx, tx, entry)
}

// Delete mocks base method.
func (m *MockPettyCashRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockPettyCashRepositoryMockRecorder) Delete(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockPettyCashRepository)(nil).Delete), ctx, tx, id)
}

// ListByPeriod mocks base method.
func (m *MockPettyCashRepository) ListByPeriod(ctx context.Context, from time.Time, to time.Time) ([]*domain.PettyCashEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByPeriod", ctx, from, to)
	ret0, _ := ret[0].([]*domain.PettyCashEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByPeriod indicates an expected call of ListByPeriod.
func (mr *MockPettyCashRepositoryMockRecorder) ListByPeriod(ctx, from, to any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByPeriod", reflect.TypeOf((*MockPettyCashRepository)(nil).ListByPeriod), ctx, from, to)
}

// Totals mocks base method.
func (m *MockPettyCashRepository) Totals(ctx context.Context) (domain.PettyCashTotals, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Totals", ctx)
	ret0, _ := ret[0].(domain.PettyCashTotals)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Totals indicates an expected call of Totals.
func (mr *MockPettyCashRepositoryMockRecorder) Totals(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Totals", reflect.TypeOf((*MockPettyCashRepository)(nil).Totals), ctx)
}

// TotalsTx mocks base method.
func (m *MockPettyCashRepository) TotalsTx(ctx context.Context, tx usecase.Transaction) (domain.PettyCashTotals, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TotalsTx", ctx, tx)
	ret0, _ := ret[0].(domain.PettyCashTotals)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// TotalsTx indicates an expected call of TotalsTx.
func (mr *MockPettyCashRepositoryMockRecorder) TotalsTx(ctx, tx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TotalsTx", reflect.TypeOf((*MockPettyCashRepository)(nil).TotalsTx), ctx, tx)
}

// TotalsAsOf mocks base method.
func (m *MockPettyCashRepository) TotalsAsOf(ctx context.Context, at time.Time) (domain.PettyCashTotals, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TotalsAsOf", ctx, at)
	ret0, _ := ret[0].(domain.PettyCashTotals)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// TotalsAsOf indicates an expected call of TotalsAsOf.
func (mr *MockPettyCashRepositoryMockRecorder) TotalsAsOf(ctx, at any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TotalsAsOf", reflect.TypeOf((*MockPettyCashRepository)(nil).TotalsAsOf), ctx, at)
}

// MockSalaryRepository is a mock of SalaryRepository interface.
type MockSalaryRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSalaryRepositoryMockRecorder
	isgomock struct{}
}

// MockSalaryRepositoryMockRecorder is the mock recorder for MockSalaryRepository.
type MockSalaryRepositoryMockRecorder struct {
	mock *MockSalaryRepository
}

// NewMockSalaryRepository creates a new mock instance.
func NewMockSalaryRepository(ctrl *gomock.Controller) *MockSalaryRepository {
	mock := &MockSalaryRepository{ctrl: ctrl}
	mock.recorder = &MockSalaryRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSalaryRepository) EXPECT() *MockSalaryRepositoryMockRecorder {
	return m.recorder
}

// CreateIfAbsent mocks base method.
func (m *MockSalaryRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateIfAbsent", ctx, tx, record)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateIfAbsent indicates an expected call of CreateIfAbsent.
func (mr *MockSalaryRepositoryMockRecorder) CreateIfAbsent(ctx, tx, record any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateIfAbsent", reflect.TypeOf((*MockSalaryRepository)(nil).CreateIfAbsent), ctx, tx, record)
}

// GetByID mocks base method.
func (m *MockSalaryRepository) GetByID(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.SalaryRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID.
func (mr *MockSalaryRepositoryMockRecorder) GetByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockSalaryRepository)(nil).GetByID), ctx, id)
}

// GetByIDForUpdate mocks base method.
func (m *MockSalaryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SalaryRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByIDForUpdate", ctx, tx, id)
	ret0, _ := ret[0].(*domain.SalaryRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByIDForUpdate indicates an expected call of GetByIDForUpdate.
func (mr *MockSalaryRepositoryMockRecorder) GetByIDForUpdate(ctx, tx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByIDForUpdate", reflect.TypeOf((*MockSalaryRepository)(nil).GetByIDForUpdate), ctx, tx, id)
}

// Update mocks base method.
func (m *MockSalaryRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, record)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockSalaryRepositoryMockRecorder) Update(ctx, tx, record any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockSalaryRepository)(nil).Update), ctx, tx, record)
}

// ListByMonth mocks base method.
func (m *MockSalaryRepository) ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByMonth", ctx, month)
	ret0, _ := ret[0].([]*domain.SalaryRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByMonth indicates an expected call of ListByMonth.
func (mr *MockSalaryRepositoryMockRecorder) ListByMonth(ctx, month any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByMonth", reflect.TypeOf((*MockSalaryRepository)(nil).ListByMonth), ctx, month)
}

// ListUpToMonth mocks base method.
func (m *MockSalaryRepository) ListUpToMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListUpToMonth", ctx, month)
	ret0, _ := ret[0].([]*domain.SalaryRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListUpToMonth indicates an expected call of ListUpToMonth.
func (mr *MockSalaryRepositoryMockRecorder) ListUpToMonth(ctx, month any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListUpToMonth", reflect.TypeOf((*MockSalaryRepository)(nil).ListUpToMonth), ctx, month)
}

// MockOutboxRepository is a mock of OutboxRepository interface.
type MockOutboxRepository struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxRepositoryMockRecorder
	isgomock struct{}
}

// MockOutboxRepositoryMockRecorder is the mock recorder for MockOutboxRepository.
type MockOutboxRepositoryMockRecorder struct {
	mock *MockOutboxRepository
}

// NewMockOutboxRepository creates a new mock instance.
func NewMockOutboxRepository(ctrl *gomock.Controller) *MockOutboxRepository {
	mock := &MockOutboxRepository{ctrl: ctrl}
	mock.recorder = &MockOutboxRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOutboxRepository) EXPECT() *MockOutboxRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockOutboxRepositoryMockRecorder) Create(ctx, tx, event any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockOutboxRepository)(nil).Create), ctx, tx, event)
}

// GetUnpublished mocks base method.
func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetUnpublished", ctx, limit)
	ret0, _ := ret[0].([]*domain.OutboxEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetUnpublished indicates an expected call of GetUnpublished.
func (mr *MockOutboxRepositoryMockRecorder) GetUnpublished(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetUnpublished", reflect.TypeOf((*MockOutboxRepository)(nil).GetUnpublished), ctx, limit)
}

// MarkPublished mocks base method.
func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkPublished", ctx, id, publishedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkPublished indicates an expected call of MarkPublished.
func (mr *MockOutboxRepositoryMockRecorder) MarkPublished(ctx, id, publishedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkPublished", reflect.TypeOf((*MockOutboxRepository)(nil).MarkPublished), ctx, id, publishedAt)
}

// DeletePublished mocks base method.
func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeletePublished", ctx, before)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeletePublished indicates an expected call of DeletePublished.
func (mr *MockOutboxRepositoryMockRecorder) DeletePublished(ctx, before any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeletePublished", reflect.TypeOf((*MockOutboxRepository)(nil).DeletePublished), ctx, before)
}

// MockEmployeeDirectory is a mock of EmployeeDirectory interface.
type MockEmployeeDirectory struct {
	ctrl     *gomock.Controller
	recorder *MockEmployeeDirectoryMockRecorder
	isgomock struct{}
}

// MockEmployeeDirectoryMockRecorder is the mock recorder for MockEmployeeDirectory.
type MockEmployeeDirectoryMockRecorder struct {
	mock *MockEmployeeDirectory
}

// NewMockEmployeeDirectory creates a new mock instance.
func NewMockEmployeeDirectory(ctrl *gomock.Controller) *MockEmployeeDirectory {
	mock := &MockEmployeeDirectory{ctrl: ctrl}
	mock.recorder = &MockEmployeeDirectoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEmployeeDirectory) EXPECT() *MockEmployeeDirectoryMockRecorder {
	return m.recorder
}

// ListActive mocks base method.
func (m *MockEmployeeDirectory) ListActive(ctx context.Context) ([]domain.Employee, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListActive", ctx)
	ret0, _ := ret[0].([]domain.Employee)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListActive indicates an expected call of ListActive.
func (mr *MockEmployeeDirectoryMockRecorder) ListActive(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListActive", reflect.TypeOf((*MockEmployeeDirectory)(nil).ListActive), ctx)
}

// MockOvertimeSource is a mock of OvertimeSource interface.
type MockOvertimeSource struct {
	ctrl     *gomock.Controller
	recorder *MockOvertimeSourceMockRecorder
	isgomock struct{}
}

// MockOvertimeSourceMockRecorder is the mock recorder for MockOvertimeSource.
type MockOvertimeSourceMockRecorder struct {
	mock *MockOvertimeSource
}

// NewMockOvertimeSource creates a new mock instance.
func NewMockOvertimeSource(ctrl *gomock.Controller) *MockOvertimeSource {
	mock := &MockOvertimeSource{ctrl: ctrl}
	mock.recorder = &MockOvertimeSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOvertimeSource) EXPECT() *MockOvertimeSourceMockRecorder {
	return m.recorder
}

// MonthlyOvertime mocks base method.
func (m *MockOvertimeSource) MonthlyOvertime(ctx context.Context, employeeID string, month string) (domain.OvertimeSummary, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MonthlyOvertime", ctx, employeeID, month)
	ret0, _ := ret[0].(domain.OvertimeSummary)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MonthlyOvertime indicates an expected call of MonthlyOvertime.
func (mr *MockOvertimeSourceMockRecorder) MonthlyOvertime(ctx, employeeID, month any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MonthlyOvertime", reflect.TypeOf((*MockOvertimeSource)(nil).MonthlyOvertime), ctx, employeeID, month)
}

// MockRevenueSource is a mock of RevenueSource interface.
type MockRevenueSource struct {
	ctrl     *gomock.Controller
	recorder *MockRevenueSourceMockRecorder
	isgomock struct{}
}

// MockRevenueSourceMockRecorder is the mock recorder for MockRevenueSource.
type MockRevenueSourceMockRecorder struct {
	mock *MockRevenueSource
}

// NewMockRevenueSource creates a new mock instance.
func NewMockRevenueSource(ctrl *gomock.Controller) *MockRevenueSource {
	mock := &MockRevenueSource{ctrl: ctrl}
	mock.recorder = &MockRevenueSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRevenueSource) EXPECT() *MockRevenueSourceMockRecorder {
	return m.recorder
}

// CompletedOrderRevenue mocks base method.
func (m *MockRevenueSource) CompletedOrderRevenue(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CompletedOrderRevenue", ctx, from, to)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CompletedOrderRevenue indicates an expected call of CompletedOrderRevenue.
func (mr *MockRevenueSourceMockRecorder) CompletedOrderRevenue(ctx, from, to any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CompletedOrderRevenue", reflect.TypeOf((*MockRevenueSource)(nil).CompletedOrderRevenue), ctx, from, to)
}

// OutstandingReceivables mocks base method.
func (m *MockRevenueSource) OutstandingReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "OutstandingReceivables", ctx, asOf)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// OutstandingReceivables indicates an expected call of OutstandingReceivables.
func (mr *MockRevenueSourceMockRecorder) OutstandingReceivables(ctx, asOf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OutstandingReceivables", reflect.TypeOf((*MockRevenueSource)(nil).OutstandingReceivables), ctx, asOf)
}

// MockTransaction is a mock of Transaction interface.
type MockTransaction struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionMockRecorder
	isgomock struct{}
}

// MockTransactionMockRecorder is the mock recorder for MockTransaction.
type MockTransactionMockRecorder struct {
	mock *MockTransaction
}

// NewMockTransaction creates a new mock instance.
func NewMockTransaction(ctrl *gomock.Controller) *MockTransaction {
	mock := &MockTransaction{ctrl: ctrl}
	mock.recorder = &MockTransactionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransaction) EXPECT() *MockTransactionMockRecorder {
	return m.recorder
}

// Commit mocks base method.
func (m *MockTransaction) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit.
func (mr *MockTransactionMockRecorder) Commit(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockTransaction)(nil).Commit), ctx)
}

// Rollback mocks base method.
func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Rollback indicates an expected call of Rollback.
func (mr *MockTransactionMockRecorder) Rollback(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockTransaction)(nil).Rollback), ctx)
}

// MockTransactionManager is a mock of TransactionManager interface.
type MockTransactionManager struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionManagerMockRecorder
	isgomock struct{}
}

// MockTransactionManagerMockRecorder is the mock recorder for MockTransactionManager.
type MockTransactionManagerMockRecorder struct {
	mock *MockTransactionManager
}

// NewMockTransactionManager creates a new mock instance.
func NewMockTransactionManager(ctrl *gomock.Controller) *MockTransactionManager {
	mock := &MockTransactionManager{ctrl: ctrl}
	mock.recorder = &MockTransactionManagerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransactionManager) EXPECT() *MockTransactionManagerMockRecorder {
	return m.recorder
}

// Begin mocks base method.
func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Begin", ctx)
	ret0, _ := ret[0].(usecase.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Begin indicates an expected call of Begin.
func (mr *MockTransactionManagerMockRecorder) Begin(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Begin", reflect.TypeOf((*MockTransactionManager)(nil).Begin), ctx)
}

// MockRetrier is a mock of Retrier interface.
type MockRetrier struct {
	ctrl     *gomock.Controller
	recorder *MockRetrierMockRecorder
	isgomock struct{}
}

// MockRetrierMockRecorder is the mock recorder for MockRetrier.
type MockRetrierMockRecorder struct {
	mock *MockRetrier
}

// NewMockRetrier creates a new mock instance.
func NewMockRetrier(ctrl *gomock.Controller) *MockRetrier {
	mock := &MockRetrier{ctrl: ctrl}
	mock.recorder = &MockRetrierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRetrier) EXPECT() *MockRetrierMockRecorder {
	return m.recorder
}

// Retry mocks base method.
func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Retry", ctx, operation)
	ret0, _ := ret[0].(error)
	return ret0
}

// Retry indicates an expected call of Retry.
func (mr *MockRetrierMockRecorder) Retry(ctx, operation any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Retry", reflect.TypeOf((*MockRetrier)(nil).Retry), ctx, operation)
}

// MockIDGenerator is a mock of IDGenerator interface.
type MockIDGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockIDGeneratorMockRecorder
	isgomock struct{}
}

// MockIDGeneratorMockRecorder is the mock recorder for MockIDGenerator.
type MockIDGeneratorMockRecorder struct {
	mock *MockIDGenerator
}

// NewMockIDGenerator creates a new mock instance.
func NewMockIDGenerator(ctrl *gomock.Controller) *MockIDGenerator {
	mock := &MockIDGenerator{ctrl: ctrl}
	mock.recorder = &MockIDGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIDGenerator) EXPECT() *MockIDGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockIDGenerator) Generate() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate")
	ret0, _ := ret[0].(string)
	return ret0
}

// Generate indicates an expected call of Generate.
func (mr *MockIDGeneratorMockRecorder) Generate() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockIDGenerator)(nil).Generate))
}

// MockMetricsRecorder is a mock of MetricsRecorder interface.
type MockMetricsRecorder struct {
	ctrl     *gomock.Controller
	recorder *MockMetricsRecorderMockRecorder
	isgomock struct{}
}

// MockMetricsRecorderMockRecorder is the mock recorder for MockMetricsRecorder.
type MockMetricsRecorderMockRecorder struct {
	mock *MockMetricsRecorder
}

// NewMockMetricsRecorder creates a new mock instance.
func NewMockMetricsRecorder(ctrl *gomock.Controller) *MockMetricsRecorder {
	mock := &MockMetricsRecorder{ctrl: ctrl}
	mock.recorder = &MockMetricsRecorderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMetricsRecorder) EXPECT() *MockMetricsRecorderMockRecorder {
	return m.recorder
}

// ObservePosting mocks base method.
func (m *MockMetricsRecorder) ObservePosting(operation string, duration time.Duration, err error) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObservePosting", operation, duration, err)
}

// ObservePosting indicates an expected call of ObservePosting.
func (mr *MockMetricsRecorderMockRecorder) ObservePosting(operation, duration, err any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObservePosting", reflect.TypeOf((*MockMetricsRecorder)(nil).ObservePosting), operation, duration, err)
}

// SetBalance mocks base method.
func (m *MockMetricsRecorder) SetBalance(d domain.BalanceDomain, balance decimal.Decimal) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetBalance", d, balance)
}

// SetBalance indicates an expected call of SetBalance.
func (mr *MockMetricsRecorderMockRecorder) SetBalance(d, balance any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetBalance", reflect.TypeOf((*MockMetricsRecorder)(nil).SetBalance), d, balance)
}

// MockCache is a mock of Cache interface.
type MockCache struct {
	ctrl     *gomock.Controller
	recorder *MockCacheMockRecorder
	isgomock struct{}
}

// MockCacheMockRecorder is the mock recorder for MockCache.
type MockCacheMockRecorder struct {
	mock *MockCache
}

// NewMockCache creates a new mock instance.
func NewMockCache(ctrl *gomock.Controller) *MockCache {
	mock := &MockCache{ctrl: ctrl}
	mock.recorder = &MockCacheMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCache) EXPECT() *MockCacheMockRecorder {
	return m.recorder
}

// Get mocks base method.
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockCacheMockRecorder) Get(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockCache)(nil).Get), ctx, key)
}

// Set mocks base method.
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Set", ctx, key, value, ttl)
	ret0, _ := ret[0].(error)
	return ret0
}

// Set indicates an expected call of Set.
func (mr *MockCacheMockRecorder) Set(ctx, key, value, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Set", reflect.TypeOf((*MockCache)(nil).Set), ctx, key, value, ttl)
}

// Delete mocks base method.
func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockCacheMockRecorder) Delete(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockCache)(nil).Delete), ctx, key)
}

// MockIdempotencyStore is a mock of IdempotencyStore interface.
type MockIdempotencyStore struct {
	ctrl     *gomock.Controller
	recorder *MockIdempotencyStoreMockRecorder
	isgomock struct{}
}

// MockIdempotencyStoreMockRecorder is the mock recorder for MockIdempotencyStore.
type MockIdempotencyStoreMockRecorder struct {
	mock *MockIdempotencyStore
}

// NewMockIdempotencyStore creates a new mock instance.
func NewMockIdempotencyStore(ctrl *gomock.Controller) *MockIdempotencyStore {
	mock := &MockIdempotencyStore{ctrl: ctrl}
	mock.recorder = &MockIdempotencyStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIdempotencyStore) EXPECT() *MockIdempotencyStoreMockRecorder {
	return m.recorder
}

// CheckAndSet mocks base method.
func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckAndSet", ctx, key, response, ttl)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// CheckAndSet indicates an expected call of CheckAndSet.
func (mr *MockIdempotencyStoreMockRecorder) CheckAndSet(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckAndSet", reflect.TypeOf((*MockIdempotencyStore)(nil).CheckAndSet), ctx, key, response, ttl)
}

// Release mocks base method.
func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Release", ctx, key)
	ret0, _ := ret[0].(error)
	return ret0
}

// Release indicates an expected call of Release.
func (mr *MockIdempotencyStoreMockRecorder) Release(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Release", reflect.TypeOf((*MockIdempotencyStore)(nil).Release), ctx, key)
}

// Update mocks base method.
func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, key, response, ttl)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockIdempotencyStoreMockRecorder) Update(ctx, key, response, ttl any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIdempotencyStore)(nil).Update), ctx, key, response, ttl)
}

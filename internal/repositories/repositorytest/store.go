// Package repositorytest provides an in-memory LedgerStore for service
// tests. It honors the same sentinel errors and compare-and-set
// semantics as the database-backed store, and rolls state back when a
// transactional function returns an error.
package repositorytest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"taqsit/internal/models"
	"taqsit/internal/repositories"
)

// Store is an in-memory implementation of repositories.LedgerStore.
type Store struct {
	mu sync.Mutex

	customers    map[uint]models.Customer
	merchants    map[uint]models.Merchant
	requests     map[uint]models.PurchaseRequest
	plans        map[uint]models.InstallmentPlan
	installments map[uint]models.Installment

	nextID uint
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		customers:    make(map[uint]models.Customer),
		merchants:    make(map[uint]models.Merchant),
		requests:     make(map[uint]models.PurchaseRequest),
		plans:        make(map[uint]models.InstallmentPlan),
		installments: make(map[uint]models.Installment),
	}
}

func (s *Store) allocID() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) Customers() repositories.CustomerRepository { return &customerRepo{s} }
func (s *Store) Merchants() repositories.MerchantRepository { return &merchantRepo{s} }
func (s *Store) Purchases() repositories.PurchaseRepository { return &purchaseRepo{s} }
func (s *Store) Plans() repositories.PlanRepository         { return &planRepo{s} }

// ExecuteInTransaction runs fn and restores the pre-call state when fn
// returns an error, mirroring a database rollback.
func (s *Store) ExecuteInTransaction(fn func(repositories.LedgerStore) error) error {
	s.mu.Lock()
	snapshot := s.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.customers = snapshot.customers
		s.merchants = snapshot.merchants
		s.requests = snapshot.requests
		s.plans = snapshot.plans
		s.installments = snapshot.installments
		s.nextID = snapshot.nextID
		s.mu.Unlock()
		return fmt.Errorf("ledger transaction failed: %w", err)
	}
	return nil
}

func (s *Store) clone() *Store {
	c := NewStore()
	c.nextID = s.nextID
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.merchants {
		c.merchants[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.plans {
		v.Installments = nil
		c.plans[k] = v
	}
	for k, v := range s.installments {
		c.installments[k] = v
	}
	return c
}

// SeedCustomer inserts a customer, assigning an ID when missing.
func (s *Store) SeedCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.allocID()
	}
	s.customers[c.ID] = c
	return c
}

// SeedMerchant inserts a merchant, assigning an ID when missing.
func (s *Store) SeedMerchant(m models.Merchant) models.Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.allocID()
	}
	s.merchants[m.ID] = m
	return m
}

// SeedRequest inserts a purchase request, assigning an ID when missing.
func (s *Store) SeedRequest(r models.PurchaseRequest) models.PurchaseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.allocID()
	}
	s.requests[r.ID] = r
	return r
}

// SeedPlan inserts a plan together with its installments.
func (s *Store) SeedPlan(p models.InstallmentPlan) models.InstallmentPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	}
	for i := range p.Installments {
		inst := p.Installments[i]
		if inst.ID == 0 {
			inst.ID = s.allocID()
		}
		inst.PlanID = p.ID
		p.Installments[i] = inst
		s.installments[inst.ID] = inst
	}
	stored := p
	stored.Installments = nil
	s.plans[p.ID] = stored
	return p
}

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(customer *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.NationalID == customer.NationalID || c.UserID == customer.UserID {
			return repositories.ErrDuplicateCustomer
		}
	}
	customer.ID = r.s.allocID()
	customer.CreatedAt = time.Now()
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) GetByID(id uint) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, repositories.ErrCustomerNotFound
	}
	return &c, nil
}

// GetByIDForUpdate matches GetByID here; the store mutex already
// serializes access.
func (r *customerRepo) GetByIDForUpdate(id uint) (*models.Customer, error) {
	return r.GetByID(id)
}

func (r *customerRepo) GetByUserID(userID uint) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.UserID == userID {
			cc := c
			return &cc, nil
		}
	}
	return nil, repositories.ErrCustomerNotFound
}

func (r *customerRepo) GetByNationalID(nationalID string) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.NationalID == nationalID {
			cc := c
			return &cc, nil
		}
	}
	return nil, repositories.ErrCustomerNotFound
}

func (r *customerRepo) Update(customer *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[customer.ID]; !ok {
		return repositories.ErrCustomerNotFound
	}
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) ListPaginated(approved *bool, limit, offset int) ([]models.Customer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Customer
	for _, c := range r.s.customers {
		if approved != nil && c.IsApproved != *approved {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	return page(all, limit, offset), total, nil
}

type merchantRepo struct{ s *Store }

func (r *merchantRepo) Create(merchant *models.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	merchant.ID = r.s.allocID()
	merchant.CreatedAt = time.Now()
	r.s.merchants[merchant.ID] = *merchant
	return nil
}

func (r *merchantRepo) GetByID(id uint) (*models.Merchant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.merchants[id]
	if !ok {
		return nil, repositories.ErrMerchantNotFound
	}
	return &m, nil
}

// GetByIDForUpdate matches GetByID here; the store mutex already
// serializes access.
func (r *merchantRepo) GetByIDForUpdate(id uint) (*models.Merchant, error) {
	return r.GetByID(id)
}

func (r *merchantRepo) GetByUserID(userID uint) (*models.Merchant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.merchants {
		if m.UserID == userID {
			mm := m
			return &mm, nil
		}
	}
	return nil, repositories.ErrMerchantNotFound
}

func (r *merchantRepo) GetByCommercialRegistration(cr string) (*models.Merchant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.merchants {
		if m.CommercialRegistration == cr {
			mm := m
			return &mm, nil
		}
	}
	return nil, repositories.ErrMerchantNotFound
}

func (r *merchantRepo) Update(merchant *models.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merchants[merchant.ID]; !ok {
		return repositories.ErrMerchantNotFound
	}
	r.s.merchants[merchant.ID] = *merchant
	return nil
}

func (r *merchantRepo) ListPaginated(approved *bool, limit, offset int) ([]models.Merchant, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Merchant
	for _, m := range r.s.merchants {
		if approved != nil && m.IsApproved != *approved {
			continue
		}
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	return page(all, limit, offset), total, nil
}

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Create(request *models.PurchaseRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request.ID = r.s.allocID()
	request.CreatedAt = time.Now()
	r.s.requests[request.ID] = *request
	return nil
}

func (r *purchaseRepo) GetByID(id uint) (*models.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	return &req, nil
}

func (r *purchaseRepo) GetByReference(reference string) (*models.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.ReferenceNumber == reference {
			rr := req
			return &rr, nil
		}
	}
	return nil, repositories.ErrRequestNotFound
}

func (r *purchaseRepo) Update(request *models.PurchaseRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[request.ID]; !ok {
		return repositories.ErrRequestNotFound
	}
	r.s.requests[request.ID] = *request
	return nil
}

func (r *purchaseRepo) UpdateStatus(id uint, from, to models.RequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.Status != from {
		return repositories.ErrStatusConflict
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	r.s.requests[id] = req
	return nil
}

func (r *purchaseRepo) ListByCustomer(customerID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.PurchaseRequest
	for _, req := range r.s.requests {
		if req.CustomerID != customerID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, limit, offset), nil
}

func (r *purchaseRepo) ListByMerchant(merchantID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.PurchaseRequest
	for _, req := range r.s.requests {
		if req.MerchantID != merchantID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, limit, offset), nil
}

func (r *purchaseRepo) ListPendingForCustomer(customerID uint, now time.Time) ([]models.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.PurchaseRequest
	for _, req := range r.s.requests {
		if req.CustomerID != customerID || req.Status != models.RequestStatusPending {
			continue
		}
		if now.After(req.ExpiresAt) {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *purchaseRepo) ListPaginated(status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.PurchaseRequest
	for _, req := range r.s.requests {
		if status != nil && req.Status != *status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return page(all, limit, offset), int64(len(all)), nil
}

func (r *purchaseRepo) CountByMerchantAndStatus(merchantID uint, status models.RequestStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, req := range r.s.requests {
		if req.MerchantID == merchantID && req.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *purchaseRepo) ExpirePending(now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, req := range r.s.requests {
		if req.Status == models.RequestStatusPending && now.After(req.ExpiresAt) {
			req.Status = models.RequestStatusExpired
			req.UpdatedAt = now
			r.s.requests[id] = req
			count++
		}
	}
	return count, nil
}

type planRepo struct{ s *Store }

func (r *planRepo) Create(plan *models.InstallmentPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	plan.ID = r.s.allocID()
	plan.CreatedAt = time.Now()
	for i := range plan.Installments {
		inst := &plan.Installments[i]
		inst.ID = r.s.allocID()
		inst.PlanID = plan.ID
		r.s.installments[inst.ID] = *inst
	}
	stored := *plan
	stored.Installments = nil
	r.s.plans[plan.ID] = stored
	return nil
}

func (r *planRepo) GetByID(id uint) (*models.InstallmentPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	plan, ok := r.s.plans[id]
	if !ok {
		return nil, repositories.ErrPlanNotFound
	}
	plan.Installments = r.installmentsOf(id)
	return &plan, nil
}

func (r *planRepo) GetByPurchaseRequestID(requestID uint) (*models.InstallmentPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, plan := range r.s.plans {
		if plan.PurchaseRequestID == requestID {
			plan.Installments = r.installmentsOf(id)
			return &plan, nil
		}
	}
	return nil, repositories.ErrPlanNotFound
}

func (r *planRepo) Update(plan *models.InstallmentPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans[plan.ID]; !ok {
		return repositories.ErrPlanNotFound
	}
	stored := *plan
	stored.Installments = nil
	r.s.plans[plan.ID] = stored
	return nil
}

func (r *planRepo) ListByCustomer(customerID uint, status *models.PlanStatus) ([]models.InstallmentPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.InstallmentPlan
	for id, plan := range r.s.plans {
		if plan.CustomerID != customerID {
			continue
		}
		if status != nil && plan.Status != *status {
			continue
		}
		plan.Installments = r.installmentsOf(id)
		all = append(all, plan)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *planRepo) GetInstallmentByID(id uint) (*models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.installments[id]
	if !ok {
		return nil, repositories.ErrInstallmentMissing
	}
	return &inst, nil
}

// GetInstallmentForUpdate matches GetInstallmentByID here; the store
// mutex already serializes access.
func (r *planRepo) GetInstallmentForUpdate(id uint) (*models.Installment, error) {
	return r.GetInstallmentByID(id)
}

func (r *planRepo) UpdateInstallment(installment *models.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.installments[installment.ID]; !ok {
		return repositories.ErrInstallmentMissing
	}
	r.s.installments[installment.ID] = *installment
	return nil
}

func (r *planRepo) ListInstallments(planID uint) ([]models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.installmentsOf(planID), nil
}

func (r *planRepo) NextPendingInstallment(planID uint) (*models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var next *models.Installment
	for _, inst := range r.installmentsOf(planID) {
		switch inst.Status {
		case models.InstallmentStatusPending, models.InstallmentStatusPartiallyPaid, models.InstallmentStatusOverdue:
			if next == nil || inst.DueDate.Before(next.DueDate) {
				ic := inst
				next = &ic
			}
		}
	}
	if next == nil {
		return nil, repositories.ErrInstallmentMissing
	}
	return next, nil
}

func (r *planRepo) ListOverdueByCustomer(customerID uint) ([]models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Installment
	for _, inst := range r.s.installments {
		if inst.Status != models.InstallmentStatusOverdue {
			continue
		}
		plan, ok := r.s.plans[inst.PlanID]
		if !ok || plan.CustomerID != customerID {
			continue
		}
		all = append(all, inst)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DueDate.Before(all[j].DueDate) })
	return all, nil
}

func (r *planRepo) ListPaymentRequestedByMerchant(merchantID uint) ([]models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Installment
	for _, inst := range r.s.installments {
		if inst.Status != models.InstallmentStatusPaymentRequested {
			continue
		}
		plan, ok := r.s.plans[inst.PlanID]
		if !ok {
			continue
		}
		req, ok := r.s.requests[plan.PurchaseRequestID]
		if !ok || req.MerchantID != merchantID {
			continue
		}
		all = append(all, inst)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *planRepo) MarkOverdue(now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, inst := range r.s.installments {
		if inst.Status == models.InstallmentStatusPending && now.After(inst.DueDate) {
			inst.Status = models.InstallmentStatusOverdue
			r.s.installments[id] = inst
			count++
		}
	}
	return count, nil
}

func (r *planRepo) installmentsOf(planID uint) []models.Installment {
	var out []models.Installment
	for _, inst := range r.s.installments {
		if inst.PlanID == planID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

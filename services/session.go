package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"

	"invoicegen-backend/models"
)

// Pipeline is one user's pass through plan selection, payment checkout
// and the invoice stage. All transitions happen in response to discrete
// requests; at most one asynchronous call is outstanding per pipeline.
type Pipeline struct {
	mu       sync.Mutex
	stage    models.Stage
	plan     models.Plan
	checkout *CheckoutMachine
	composer *Composer

	tokenizer Tokenizer
	relay     ChargeRelay
}

func NewPipeline(tokenizer Tokenizer, relay ChargeRelay) *Pipeline {
	return &Pipeline{
		stage:     models.StagePlanSelection,
		tokenizer: tokenizer,
		relay:     relay,
	}
}

func (p *Pipeline) Stage() models.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) Plan() models.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan
}

func (p *Pipeline) Checkout() *CheckoutMachine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkout
}

func (p *Pipeline) Composer() *Composer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.composer
}

// SelectPlan records the chosen tier. Free goes straight to the invoice
// stage; Paid opens a fresh checkout.
func (p *Pipeline) SelectPlan(plan models.Plan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != models.StagePlanSelection {
		return ErrWrongState
	}
	p.plan = plan
	if plan.RequiresPayment() {
		p.checkout = NewCheckoutMachine(plan, p.tokenizer, p.relay)
		p.stage = models.StagePaymentCheckout
	} else {
		p.composer = NewComposer()
		p.stage = models.StageInvoice
	}
	return nil
}

// CompleteCheckout hands control to the invoice stage after a successful
// charge confirmation, carrying the billing contact into the invoice
// header.
func (p *Pipeline) CompleteCheckout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != models.StagePaymentCheckout || p.checkout == nil {
		return ErrWrongState
	}
	if p.checkout.State() != StateSucceeded {
		return ErrWrongState
	}
	contact := p.checkout.Contact()
	p.composer = NewComposer()
	p.composer.SeedCustomer(models.InvoiceCustomer{
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
	})
	p.stage = models.StageInvoice
	return nil
}

// CancelCheckout abandons the payment step, discards everything entered
// and returns control to plan selection.
func (p *Pipeline) CancelCheckout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != models.StagePaymentCheckout || p.checkout == nil {
		return ErrWrongState
	}
	if err := p.checkout.Cancel(); err != nil {
		return err
	}
	p.checkout = nil
	p.plan = ""
	p.stage = models.StagePlanSelection
	return nil
}

// Reset discards the whole pipeline back to plan selection, whatever
// stage it is in.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.checkout != nil {
		_ = p.checkout.Cancel()
	}
	p.checkout = nil
	p.composer = nil
	p.plan = ""
	p.stage = models.StagePlanSelection
}

// Session pairs a pipeline with its last-activity timestamp.
type Session struct {
	ID       uuid.UUID
	Pipeline *Pipeline
	lastSeen time.Time
}

// SessionStore keeps every live session in memory; nothing outlives the
// process. Idle sessions are reaped on a schedule.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	ttl         time.Duration
	newPipeline func() *Pipeline
}

func NewSessionStore(ttl time.Duration, newPipeline func() *Pipeline) *SessionStore {
	return &SessionStore{
		sessions:    make(map[uuid.UUID]*Session),
		ttl:         ttl,
		newPipeline: newPipeline,
	}
}

func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ID:       uuid.New(),
		Pipeline: s.newPipeline(),
		lastSeen: time.Now(),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and refreshes its idle timer.
func (s *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = time.Now()
	}
	return sess, ok
}

func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Reap removes sessions idle past the TTL and returns how many went.
func (s *SessionStore) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	reaped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			reaped++
		}
	}
	return reaped
}

// StartReaper prunes idle sessions every ten minutes.
func (s *SessionStore) StartReaper() *cron.Cron {
	c := cron.New()
	c.AddFunc("@every 10m", func() {
		if n := s.Reap(); n > 0 {
			log.Printf("[SESSIONS] reaped %d idle session(s)", n)
		}
	})
	c.Start()
	return c
}
